package routes

import (
	"net/http"

	"pathgo/internal/config"
	"pathgo/internal/handlers"
	"pathgo/internal/middleware"
	"pathgo/internal/models"
	"pathgo/internal/utils"
	"pathgo/pkg/cache"
	"pathgo/pkg/database"
	"pathgo/pkg/logger"
	"pathgo/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Ride        *handlers.RideHandler
	Driver      *handlers.DriverHandler
	Partner     *handlers.PartnerHandler
	Payment     *handlers.PaymentHandler
	ResQ        *handlers.ResQHandler
	Cure        *handlers.CureHandler
	Appointment *handlers.AppointmentHandler
	Admin       *handlers.AdminHandler
}

// Setup wires all route groups onto the engine.
func Setup(
	r *gin.Engine,
	cfg *config.Config,
	h *Handlers,
	ws *websocket.Handler,
	db *database.MongoDB,
	redis *cache.RedisCache,
	log *logger.Logger,
) {
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(log))
	r.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))
	r.Use(middleware.RateLimitMiddleware(redis, cfg.Security.RateLimitPerMinute))

	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		checks := gin.H{"mongo": "up", "redis": "up"}
		if err := db.Ping(); err != nil {
			checks["mongo"] = "down"
			status = http.StatusServiceUnavailable
		}
		if _, err := redis.Exists(c.Request.Context(), "health"); err != nil {
			checks["redis"] = "down"
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": checks, "version": utils.AppVersion})
	})

	auth := middleware.AuthRequired(cfg.Security.JWTSecret)
	driverOnly := middleware.RequireRole(models.RolePartner)
	mechanicOnly := middleware.RequireRole(models.RoleMechanic)
	cureOnly := middleware.RequireRole(models.RoleCurePartner)

	// Live updates; the token comes in as a query parameter because
	// browsers cannot set headers on websocket upgrades.
	r.GET(cfg.WebSocket.Path, auth, ws.HandleWebSocket)

	v1 := r.Group("/api/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/otp/send", h.Auth.SendOTP)
		authGroup.POST("/otp/verify", h.Auth.VerifyOTP)
		authGroup.POST("/email-otp/send", h.Auth.SendEmailOTP)
		authGroup.POST("/email-otp/verify", h.Auth.VerifyEmailOTP)
		authGroup.POST("/google", h.Auth.GoogleLogin)
		authGroup.POST("/refresh", h.Auth.RefreshToken)
		authGroup.POST("/logout", auth, h.Auth.Logout)
	}

	users := v1.Group("/users", auth)
	{
		users.GET("/me", h.User.GetProfile)
		users.PUT("/me", h.User.UpdateProfile)
		users.POST("/me/photo", h.User.UploadPhoto)
		users.POST("/me/device", h.User.RegisterDevice)
	}

	rides := v1.Group("/rides", auth)
	{
		rides.POST("", h.Ride.RequestRide)
		rides.GET("/active", h.Ride.GetActiveRide)
		rides.GET("/history", h.Ride.GetHistory)
		rides.GET("/:id", h.Ride.GetRide)
		rides.GET("/:id/otp", h.Ride.GetRideOTP)
		rides.PUT("/:id/cancel", h.Ride.CancelRide)

		rides.POST("/:id/payment/order", h.Payment.CreateOrder)
		rides.POST("/:id/payment/confirm", h.Payment.ConfirmPayment)
	}

	v1.GET("/transactions", auth, h.Payment.GetUserTransactions)

	driver := v1.Group("/driver", auth)
	{
		driver.POST("/register", h.Driver.Register)

		approved := driver.Group("", driverOnly)
		{
			approved.GET("/profile", h.Driver.GetProfile)
			approved.PUT("/online", h.Driver.SetOnline)
			approved.PUT("/location", h.Driver.UpdateLocation)

			approved.GET("/offers/current", h.Driver.GetCurrentOffer)
			approved.PUT("/offers/:id/accept", h.Driver.AcceptOffer)
			approved.PUT("/offers/:id/decline", h.Driver.DeclineOffer)

			approved.GET("/rides/active", h.Driver.GetActiveRide)
			approved.GET("/rides/history", h.Driver.GetHistory)
			approved.PUT("/rides/:id/arriving", h.Driver.MarkArriving)
			approved.PUT("/rides/:id/arrived", h.Driver.MarkArrived)
			approved.PUT("/rides/:id/start", h.Driver.StartTrip)
			approved.PUT("/rides/:id/complete", h.Driver.CompleteTrip)
			approved.PUT("/rides/:id/cancel", h.Driver.CancelRide)
			approved.PUT("/rides/:id/settle-cash", h.Payment.SettleCash)

			approved.GET("/earnings", h.Driver.GetEarnings)
			approved.GET("/transactions", h.Payment.GetPartnerTransactions)
		}
	}

	resq := v1.Group("/resq", auth)
	{
		resq.POST("/requests", h.ResQ.RequestAssistance)
		resq.GET("/requests", h.ResQ.GetUserRequests)
		resq.PUT("/requests/:id/cancel", h.ResQ.CancelRequest)
		resq.GET("/mechanics/nearby", h.ResQ.NearbyMechanics)

		resq.POST("/mechanics/register", h.Partner.RegisterMechanic)

		mechanic := resq.Group("/mechanic", mechanicOnly)
		{
			mechanic.GET("/requests/open", h.ResQ.OpenRequests)
			mechanic.GET("/requests", h.ResQ.GetMechanicRequests)
			mechanic.PUT("/requests/:id/accept", h.ResQ.AcceptRequest)
			mechanic.PUT("/requests/:id/en-route", h.ResQ.MarkEnRoute)
			mechanic.PUT("/requests/:id/complete", h.ResQ.CompleteRequest)
		}
	}

	cure := v1.Group("/cure", auth)
	{
		cure.POST("/emergencies", h.Cure.RequestEmergency)
		cure.GET("/emergencies/open", h.Cure.GetOpenCase)
		cure.GET("/emergencies", h.Cure.GetUserCases)
		cure.PUT("/emergencies/:id/cancel", h.Cure.CancelCase)

		cure.GET("/hospitals", h.Cure.ListHospitals)
		cure.GET("/hospitals/:id/doctors", h.Cure.GetHospitalDoctors)
		cure.GET("/doctors", h.Cure.SearchDoctors)
		cure.GET("/doctors/:id/slots", h.Appointment.GetSlots)

		cure.POST("/appointments", h.Appointment.Book)
		cure.GET("/appointments", h.Appointment.GetUserAppointments)
		cure.PUT("/appointments/:id/cancel", h.Appointment.Cancel)

		cure.POST("/hospitals/register", h.Partner.RegisterHospital)

		hospital := cure.Group("/hospital", cureOnly)
		{
			hospital.GET("/emergencies", h.Cure.GetPartnerCases)
			hospital.PUT("/emergencies/:id/en-route", h.Cure.MarkEnRoute)
			hospital.PUT("/emergencies/:id/admitted", h.Cure.MarkAdmitted)
			hospital.PUT("/emergencies/:id/close", h.Cure.CloseCase)

			hospital.POST("/doctors", h.Cure.AddDoctor)
			hospital.POST("/ambulances", h.Cure.AddAmbulance)
			hospital.GET("/ambulances", h.Cure.GetPartnerAmbulances)
			hospital.GET("/appointments", h.Appointment.GetPartnerAppointments)
			hospital.PUT("/appointments/:id/confirm", h.Appointment.Confirm)
			hospital.PUT("/appointments/:id/complete", h.Appointment.Complete)
		}
	}

	admin := v1.Group("/admin", auth, middleware.AdminRequired())
	{
		admin.GET("/drivers", h.Admin.ListDrivers)
		admin.PUT("/drivers/:id/approve", h.Admin.ApproveDriver)
		admin.PUT("/drivers/:id/reject", h.Admin.RejectDriver)
		admin.PUT("/hospitals/:id/approve", h.Admin.ApproveHospital)
	}

	// Gateway callbacks carry their own signature; no bearer token.
	v1.POST("/webhooks/payment", h.Payment.HandleWebhook)
}
