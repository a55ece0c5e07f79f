package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/labdesk/labdesk_backend/middleware"
	"github.com/labdesk/labdesk_backend/models"
	"github.com/labdesk/labdesk_backend/repositories"
	"github.com/labdesk/labdesk_backend/services"
	"github.com/labdesk/labdesk_backend/utils"
)

// CommissionController manages commission rules and doctor reports
type CommissionController struct {
	service *services.CommissionService
	rules   RuleStore
	records RecordQueryStore
	doctors DoctorStore
}

// NewCommissionController creates a new commission controller
func NewCommissionController(service *services.CommissionService, rules RuleStore, records RecordQueryStore, doctors DoctorStore) *CommissionController {
	return &CommissionController{service: service, rules: rules, records: records, doctors: doctors}
}

// CreateRule validates and activates a new commission rule
func (cc *CommissionController) CreateRule(c echo.Context) error {
	var req models.CommissionRuleRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	req.CommissionType = models.CommissionType(strings.ToUpper(strings.TrimSpace(string(req.CommissionType))))
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, utils.ValidationMessage(err))
	}

	now := time.Now()
	rule := &models.CommissionRule{
		DoctorID:        req.DoctorID,
		TestID:          req.TestID,
		PackageID:       req.PackageID,
		CommissionType:  req.CommissionType,
		CommissionValue: req.CommissionValue,
		BookingType:     upperOrNil(req.BookingType),
		PaymentMode:     upperOrNil(req.PaymentMode),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if adminID, err := middleware.ExtractUserID(c); err == nil {
		rule.CreatedBy = adminID
	}

	if err := services.ValidateRule(*rule); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if rule.DoctorID != nil {
		_, err := cc.doctors.FindByID(ctx, *rule.DoctorID)
		if errors.Is(err, repositories.ErrNotFound) {
			return fail(c, http.StatusBadRequest, "Doctor not found")
		}
		if err != nil {
			return fail(c, http.StatusInternalServerError, "Failed to load doctor")
		}
	}

	if err := cc.rules.Create(ctx, rule); err != nil {
		c.Logger().Errorf("Failed to create commission rule: %v", err)
		return fail(c, http.StatusInternalServerError, "Failed to create commission rule")
	}
	return respond(c, http.StatusCreated, "Commission rule created", rule)
}

// ListRules returns active rules, or every rule with ?all=true
func (cc *CommissionController) ListRules(c echo.Context) error {
	rules, err := cc.rules.List(c.Request().Context(), c.QueryParam("all") == "true")
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to list commission rules")
	}
	return respond(c, http.StatusOK, "Commission rules retrieved", rules)
}

// DeactivateRule switches a rule off
func (cc *CommissionController) DeactivateRule(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "Invalid rule ID")
	}
	err := cc.rules.Deactivate(c.Request().Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Commission rule not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to deactivate commission rule")
	}
	return respond(c, http.StatusOK, "Commission rule deactivated", map[string]int64{"id": id})
}

// PreviewResponse shows how a hypothetical booking would be resolved
type PreviewResponse struct {
	Candidates []services.RankedRule    `json:"candidates"`
	Selected   *models.CommissionRule   `json:"selected,omitempty"`
	Score      int                      `json:"score"`
	Tied       bool                     `json:"tied"`
	Commission decimal.Decimal          `json:"commission"`
	Booking    models.BookingAttributes `json:"booking"`
}

// Preview ranks the rules matching a hypothetical booking without recording anything
func (cc *CommissionController) Preview(c echo.Context) error {
	var attrs models.BookingAttributes
	if err := c.Bind(&attrs); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	attrs.BookingType = strings.ToUpper(strings.TrimSpace(attrs.BookingType))
	attrs.PaymentMode = strings.ToUpper(strings.TrimSpace(attrs.PaymentMode))

	ranked, res, err := cc.service.Preview(c.Request().Context(), attrs)
	switch {
	case errors.Is(err, services.ErrValidation):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrRuleConfiguration):
		return respond(c, http.StatusUnprocessableEntity, err.Error(), PreviewResponse{Candidates: ranked, Booking: attrs})
	case err != nil:
		c.Logger().Errorf("Commission preview failed: %v", err)
		return fail(c, http.StatusInternalServerError, "Failed to preview commission")
	}

	return respond(c, http.StatusOK, "Commission preview", PreviewResponse{
		Candidates: ranked,
		Selected:   res.Rule,
		Score:      res.Score,
		Tied:       res.Tied,
		Commission: res.Amount,
		Booking:    attrs,
	})
}

// CommissionReport returns every commission record of a doctor with the total
func (cc *CommissionController) CommissionReport(c echo.Context) error {
	doctorID, ok, err := cc.doctorParam(c)
	if !ok {
		return err
	}
	records, err := cc.records.ListByDoctor(c.Request().Context(), doctorID, time.Time{}, time.Time{})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to load commissions")
	}
	return respond(c, http.StatusOK, "Commission report", buildReport(doctorID, 0, 0, records))
}

// CommissionSummary returns a doctor's commissions for ?month=&year=
func (cc *CommissionController) CommissionSummary(c echo.Context) error {
	doctorID, ok, err := cc.doctorParam(c)
	if !ok {
		return err
	}

	month, merr := utils.ParseInt(c.QueryParam("month"), 0)
	year, yerr := utils.ParseInt(c.QueryParam("year"), 0)
	if merr != nil || yerr != nil || year < 2000 {
		return fail(c, http.StatusBadRequest, "month and year are required")
	}
	from, to, err := utils.MonthBounds(year, month, time.UTC)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	records, err := cc.records.ListByDoctor(c.Request().Context(), doctorID, from, to)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to load commissions")
	}
	return respond(c, http.StatusOK, "Commission summary", buildReport(doctorID, month, year, records))
}

func (cc *CommissionController) doctorParam(c echo.Context) (int64, bool, error) {
	id, ok := pathID(c, "id")
	if !ok {
		return 0, false, fail(c, http.StatusBadRequest, "Invalid doctor ID")
	}
	_, err := cc.doctors.FindByID(c.Request().Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		return 0, false, fail(c, http.StatusNotFound, "Doctor not found")
	}
	if err != nil {
		return 0, false, fail(c, http.StatusInternalServerError, "Failed to load doctor")
	}
	return id, true, nil
}

func buildReport(doctorID int64, month, year int, records []models.CommissionRecord) models.CommissionReport {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.CommissionAmount)
	}
	if records == nil {
		records = []models.CommissionRecord{}
	}
	return models.CommissionReport{
		DoctorID:        doctorID,
		Month:           month,
		Year:            year,
		TotalCommission: total.Round(2),
		Records:         records,
	}
}

func upperOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*s))
	if v == "" {
		return nil
	}
	return &v
}
