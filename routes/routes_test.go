package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/labdesk/labdesk_backend/middleware"
	"github.com/labdesk/labdesk_backend/models"
	"github.com/labdesk/labdesk_backend/websocket"
)

func newRouter() *echo.Echo {
	e := echo.New()
	SetupRoutes(e, Controllers{}, websocket.NewHub())
	return e
}

func request(t *testing.T, e *echo.Echo, method, path string, userID int64, role string) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if role != "" {
		token, err := middleware.GenerateJWT(userID, "+10000000000", role)
		if err != nil {
			t.Fatalf("GenerateJWT: %v", err)
		}
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestEveryEndpointIsMounted(t *testing.T) {
	mounted := map[string]bool{}
	for _, r := range newRouter().Routes() {
		mounted[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /api/auth/send-otp",
		"POST /api/auth/verify-otp",
		"GET /api/auth/me",
		"POST /api/admin/assign-role",
		"POST /api/admin/claim-admin",
		"POST /api/admin/bookings/:id/recalculate-commission",
		"POST /api/admin/commissions/retry",
		"POST /api/doctors",
		"POST /api/employees",
		"POST /api/bookings",
		"GET /api/bookings/mine",
		"PUT /api/bookings/:id/status",
		"GET /api/bookings/:id/label",
		"POST /api/commission-rules",
		"DELETE /api/commission-rules/:id",
		"POST /api/commission-rules/preview",
		"GET /api/doctors/:id/commission-report",
		"GET /api/doctors/:id/commission-summary",
		"POST /api/attendance/mark",
		"POST /api/attendance/punch-in",
		"POST /api/attendance/:id/approve",
		"GET /api/attendance/date/:date",
		"POST /api/payroll/generate-salary",
		"GET /api/payroll/slips/:id",
		"POST /api/prescriptions/upload",
		"POST /api/reports/upload",
		"PUT /api/reports/:id/publish",
		"POST /api/reports/send-otp",
		"POST /api/reports/download",
		"PATCH /api/inventory/:id/adjust",
		"GET /api/ws",
	} {
		if !mounted[want] {
			t.Errorf("route %s is not mounted", want)
		}
	}
}

func TestRoleGuards(t *testing.T) {
	t.Setenv("JWT_SECRET", "routes-secret")
	e := newRouter()

	cases := []struct {
		name   string
		method string
		path   string
		role   string
		want   int
	}{
		{"no token", http.MethodGet, "/api/admin/users", "", http.StatusUnauthorized},
		{"patient on admin route", http.MethodGet, "/api/admin/users", models.RolePatient, http.StatusForbidden},
		{"employee on rule route", http.MethodGet, "/api/commission-rules", models.RoleEmployee, http.StatusForbidden},
		{"patient punching in", http.MethodPost, "/api/attendance/punch-in", models.RolePatient, http.StatusForbidden},
		{"patient on inventory", http.MethodGet, "/api/inventory", models.RolePatient, http.StatusForbidden},
		{"websocket without token", http.MethodGet, "/api/ws", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := request(t, e, tc.method, tc.path, 10, tc.role); got != tc.want {
				t.Errorf("status = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestPrescriptionFilesAreOwnerOnly(t *testing.T) {
	t.Setenv("JWT_SECRET", "routes-secret")
	dir := t.TempDir()
	t.Setenv("UPLOAD_DIR", dir)
	if err := os.MkdirAll(filepath.Join(dir, "prescriptions", "10"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "prescriptions", "10", "rx.png"), []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}
	e := newRouter()

	path := "/uploads/prescriptions/10/rx.png"
	if got := request(t, e, http.MethodGet, path, 10, models.RolePatient); got != http.StatusOK {
		t.Errorf("owner status = %d, want 200", got)
	}
	if got := request(t, e, http.MethodGet, path, 11, models.RolePatient); got != http.StatusForbidden {
		t.Errorf("other patient status = %d, want 403", got)
	}
	if got := request(t, e, http.MethodGet, path, 2, models.RoleEmployee); got != http.StatusOK {
		t.Errorf("employee status = %d, want 200", got)
	}
	if got := request(t, e, http.MethodGet, "/uploads/prescriptions/10/missing.png", 10, models.RolePatient); got != http.StatusNotFound {
		t.Errorf("missing file status = %d, want 404", got)
	}
}
