package main

import (
	"context"
	"log"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	gommonLog "github.com/labstack/gommon/log"

	"github.com/labdesk/labdesk_backend/config"
	"github.com/labdesk/labdesk_backend/controllers"
	"github.com/labdesk/labdesk_backend/middleware"
	"github.com/labdesk/labdesk_backend/models"
	"github.com/labdesk/labdesk_backend/repositories"
	"github.com/labdesk/labdesk_backend/routes"
	"github.com/labdesk/labdesk_backend/services"
	"github.com/labdesk/labdesk_backend/utils"
	"github.com/labdesk/labdesk_backend/websocket"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	_ = mime.AddExtensionType(".pdf", "application/pdf")

	// Connect to database
	client := config.ConnectDB()
	db := config.Database(client)

	// OTPs live in Redis when it is reachable
	var otpStore utils.OTPStore
	if redisClient := config.ConnectRedis(); redisClient != nil {
		otpStore = utils.NewRedisOTPStore(redisClient)
	} else {
		otpStore = utils.NewMongoOTPStore(db.Collection(repositories.PhoneOTPCollection))
	}

	wsHub := websocket.NewHub()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	doctorRepo := repositories.NewDoctorRepository(db)
	employeeRepo := repositories.NewEmployeeRepository(db)
	bookingRepo := repositories.NewBookingRepository(db)
	ruleRepo := repositories.NewCommissionRuleRepository(db)
	recordRepo := repositories.NewCommissionRecordRepository(db)
	attendanceRepo := repositories.NewAttendanceRepository(db)
	slipRepo := repositories.NewSalarySlipRepository(db)
	prescriptionRepo := repositories.NewPrescriptionRepository(db)
	reportRepo := repositories.NewReportRepository(db)
	inventoryRepo := repositories.NewInventoryRepository(db)

	commissionService := services.NewCommissionService(ruleRepo)
	bookingService := services.NewBookingService(bookingRepo, recordRepo, doctorRepo, commissionService, wsHub)
	sms := utils.NewSMSService()

	e := echo.New()
	e.Validator = utils.NewValidator()
	e.Logger.SetLevel(logLevel(os.Getenv("LOG_LEVEL")))
	e.HTTPErrorHandler = middleware.ErrorHandler(e)

	rateLimiter := middleware.NewRateLimiter()
	stop := make(chan struct{})
	go rateLimiter.StartCleanup(time.Minute, stop)

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.BodyLimit("12M"))
	e.Use(middleware.GlobalCORS())
	e.Use(echoMiddleware.Secure())
	e.Use(middleware.SecurityHeaders())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.RequireContentType())

	e.Match([]string{http.MethodGet, http.MethodHead}, "/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":     "healthy",
			"wsAdmins":   wsHub.Connected(models.RoleAdmin),
			"smsGateway": sms.Configured(),
		})
	})

	routes.SetupRoutes(e, routes.Controllers{
		Auth:         controllers.NewAuthController(userRepo, otpStore, sms),
		Admin:        controllers.NewAdminController(userRepo, bookingService),
		Staff:        controllers.NewStaffController(doctorRepo, employeeRepo, userRepo),
		Booking:      controllers.NewBookingController(bookingService, bookingRepo, wsHub),
		Commission:   controllers.NewCommissionController(commissionService, ruleRepo, recordRepo, doctorRepo),
		Attendance:   controllers.NewAttendanceController(attendanceRepo, employeeRepo),
		Payroll:      controllers.NewPayrollController(employeeRepo, attendanceRepo, slipRepo, utils.NewMailer()),
		Prescription: controllers.NewPrescriptionController(prescriptionRepo),
		Report:       controllers.NewReportController(reportRepo, bookingRepo, userRepo, otpStore, sms, wsHub),
		Inventory:    controllers.NewInventoryController(inventoryRepo),
	}, wsHub)

	// Commissions left PENDING or FAILED are settled again in the background
	go retryCommissions(bookingService, config.GetEnvDuration("COMMISSION_RETRY_INTERVAL", 5*time.Minute), stop)

	if err := os.MkdirAll(utils.UploadDir(), 0755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	// Start server
	port := config.GetEnv("PORT", "8080")
	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	close(stop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Error(err)
	}
	config.CloseRedis()
	if err := client.Disconnect(ctx); err != nil {
		log.Printf("MongoDB disconnect: %v", err)
	}
}

func retryCommissions(svc *services.BookingService, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			settled, err := svc.RetryPendingCommissions(ctx, time.Minute, 200)
			cancel()
			if err != nil {
				log.Printf("Commission retry failed: %v", err)
			} else if settled > 0 {
				log.Printf("Commission retry settled %d bookings", settled)
			}
		case <-stop:
			return
		}
	}
}

func logLevel(s string) gommonLog.Lvl {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return gommonLog.DEBUG
	case "WARN":
		return gommonLog.WARN
	case "ERROR":
		return gommonLog.ERROR
	case "OFF":
		return gommonLog.OFF
	}
	return gommonLog.INFO
}
