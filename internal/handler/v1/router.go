package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kliniksentosa/klinik-api/internal/config"
	"github.com/kliniksentosa/klinik-api/internal/domain"
	"github.com/kliniksentosa/klinik-api/internal/middleware"
	"github.com/kliniksentosa/klinik-api/internal/service"
	"github.com/kliniksentosa/klinik-api/pkg/auth"
	"github.com/kliniksentosa/klinik-api/pkg/metrics"
)

type Services struct {
	Auth          *service.AuthService
	Patient       *service.PatientService
	Doctor        *service.DoctorService
	Appointment   *service.AppointmentService
	MedicalRecord *service.MedicalRecordService
	Drug          *service.DrugService
	Prescription  *service.PrescriptionService
	Payment       *service.PaymentService
	Queue         *service.QueueService
	Activity      *service.ActivityService
}

func NewRouter(cfg *config.Config, svcs Services, jwtManager *auth.JWTManager, collector *metrics.Collector, log *zap.Logger) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
		middleware.Metrics(collector),
		middleware.CORS(cfg.CORS),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": cfg.App.Version})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	authHandler := NewAuthHandler(svcs.Auth)
	patientHandler := NewPatientHandler(svcs.Patient)
	doctorHandler := NewDoctorHandler(svcs.Doctor)
	appointmentHandler := NewAppointmentHandler(svcs.Appointment)
	recordHandler := NewMedicalRecordHandler(svcs.MedicalRecord)
	drugHandler := NewDrugHandler(svcs.Drug)
	prescriptionHandler := NewPrescriptionHandler(svcs.Prescription)
	paymentHandler := NewPaymentHandler(svcs.Payment)
	queueHandler := NewQueueHandler(svcs.Queue)
	activityHandler := NewActivityHandler(svcs.Activity)

	api := r.Group("/api/v1")

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.Authenticate(jwtManager))

	authed.POST("/auth/change-password", authHandler.ChangePassword)
	authed.POST("/auth/register", middleware.RequireRoles(domain.RoleAdmin), authHandler.RegisterUser)

	staff := middleware.RequireRoles(domain.RoleAdmin, domain.RoleDoctor, domain.RolePharmacist, domain.RoleReceptionist)

	patients := authed.Group("/patients")
	{
		patients.POST("", staff, patientHandler.Create)
		patients.GET("", staff, patientHandler.List)
		patients.GET("/:id", patientHandler.Get)
		patients.PATCH("/:id", staff, patientHandler.Update)
		patients.DELETE("/:id", middleware.RequireRoles(domain.RoleAdmin), patientHandler.Deactivate)
		patients.GET("/:id/queue-position", staff, queueHandler.PatientPosition)
	}

	doctors := authed.Group("/doctors")
	{
		doctors.POST("", middleware.RequireRoles(domain.RoleAdmin), doctorHandler.Create)
		doctors.GET("", doctorHandler.List)
		doctors.GET("/:id", doctorHandler.Get)
		doctors.PATCH("/:id", middleware.RequireRoles(domain.RoleAdmin), doctorHandler.Update)
		doctors.DELETE("/:id", middleware.RequireRoles(domain.RoleAdmin), doctorHandler.Deactivate)
	}

	appointments := authed.Group("/appointments")
	{
		appointments.POST("", appointmentHandler.Create)
		appointments.GET("", appointmentHandler.List)
		appointments.GET("/:id", appointmentHandler.Get)
		appointments.PATCH("/:id/status", staff, appointmentHandler.UpdateStatus)
		appointments.POST("/:id/cancel", appointmentHandler.Cancel)
		appointments.GET("/:id/medical-record", recordHandler.GetByAppointment)
		appointments.GET("/:id/payment", paymentHandler.GetByAppointment)
	}

	records := authed.Group("/medical-records")
	{
		records.POST("", middleware.RequireRoles(domain.RoleDoctor), recordHandler.Create)
		records.GET("", recordHandler.List)
		records.GET("/:id", recordHandler.Get)
	}

	drugs := authed.Group("/drugs")
	{
		drugs.POST("", middleware.RequireRoles(domain.RoleAdmin, domain.RolePharmacist), drugHandler.Create)
		drugs.GET("", staff, drugHandler.List)
		drugs.GET("/:id", staff, drugHandler.Get)
		drugs.PATCH("/:id", middleware.RequireRoles(domain.RoleAdmin, domain.RolePharmacist), drugHandler.Update)
		drugs.POST("/:id/adjust-stock", middleware.RequireRoles(domain.RoleAdmin, domain.RolePharmacist), drugHandler.AdjustStock)
		drugs.GET("/:id/stock-audit", middleware.RequireRoles(domain.RoleAdmin, domain.RolePharmacist), drugHandler.StockAudit)
		drugs.DELETE("/:id", middleware.RequireRoles(domain.RoleAdmin), drugHandler.Deactivate)
	}

	prescriptions := authed.Group("/prescriptions")
	{
		prescriptions.POST("", middleware.RequireRoles(domain.RoleDoctor), prescriptionHandler.Create)
		prescriptions.GET("", staff, prescriptionHandler.List)
		prescriptions.GET("/:id", staff, prescriptionHandler.Get)
		prescriptions.PATCH("/:id/status", middleware.RequireRoles(domain.RoleAdmin, domain.RolePharmacist), prescriptionHandler.UpdateStatus)
	}

	payments := authed.Group("/payments")
	{
		payments.POST("", staff, paymentHandler.Create)
		payments.GET("/:id", staff, paymentHandler.Get)
		payments.POST("/:id/pay", middleware.RequireRoles(domain.RoleAdmin, domain.RoleReceptionist, domain.RolePharmacist), paymentHandler.MarkPaid)
		payments.POST("/:id/cancel", middleware.RequireRoles(domain.RoleAdmin, domain.RoleReceptionist), paymentHandler.Cancel)
	}

	authed.GET("/queue/me", middleware.RequireRoles(domain.RolePatient), queueHandler.MyPosition)
	authed.GET("/activities", middleware.RequireRoles(domain.RoleAdmin), activityHandler.List)

	return r
}
