package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pathgo/internal/config"
	"pathgo/internal/handlers"
	"pathgo/internal/models"
	"pathgo/internal/repositories/mongodb"
	"pathgo/internal/services"
	"pathgo/pkg/cache"
	"pathgo/pkg/database"
	"pathgo/pkg/logger"
	"pathgo/pkg/maps"
	"pathgo/pkg/oauth"
	"pathgo/pkg/payment"
	"pathgo/pkg/push"
	"pathgo/pkg/sms"
	"pathgo/pkg/storage"
	"pathgo/pkg/websocket"
	"pathgo/routes"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: "json",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to mongodb")
	}
	defer db.Close()

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureIndexes(indexCtx, db.Database); err != nil {
		log.WithError(err).Fatal("failed to ensure indexes")
	}
	cancelIndexes()

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisCache.Close()

	// Repositories
	userRepo := mongodb.NewUserRepository(db.Database)
	partnerRepo := mongodb.NewPartnerRepository(db.Database)
	rideRepo := mongodb.NewRideRepository(db.Database, redisCache)
	mechanicRepo := mongodb.NewMechanicRepository(db.Database)
	garageRepo := mongodb.NewGarageRequestRepository(db.Database)
	curePartnerRepo := mongodb.NewCurePartnerRepository(db.Database)
	doctorRepo := mongodb.NewDoctorRepository(db.Database)
	ambulanceRepo := mongodb.NewAmbulanceRepository(db.Database)
	emergencyRepo := mongodb.NewEmergencyRepository(db.Database)
	appointmentRepo := mongodb.NewAppointmentRepository(db.Database)
	txnRepo := mongodb.NewTransactionRepository(db.Database)

	// Outbound providers
	smsProvider := buildSMSProvider(cfg, log)
	paymentProvider := buildPaymentProvider(cfg, log)
	routeProviders := buildRouteProviders(cfg, log)
	storageProvider := buildStorageProvider(cfg, log)
	pushProvider := buildPushProvider(cfg, log)
	googleOAuth := oauth.NewGoogleProvider(
		cfg.OAuth.Google.ClientID, cfg.OAuth.Google.ClientSecret, cfg.OAuth.Google.RedirectURL)

	wsHandler := websocket.NewHandler()

	// Services
	notifyService := services.NewNotificationService(userRepo, wsHandler, pushProvider, log)
	presenceService := services.NewPresenceService(partnerRepo, redisCache, log)
	routeService := services.NewRouteService(log, routeProviders...)
	emailService := services.NewEmailService(cfg.SMTP)
	authService := services.NewAuthService(userRepo, redisCache, smsProvider, emailService, googleOAuth, cfg.Security, log)
	rideService := services.NewRideService(rideRepo, partnerRepo, userRepo, routeService, notifyService, log)
	dispatchService := services.NewDispatchService(rideRepo, partnerRepo, presenceService, notifyService, db, log)
	rideService.SetDispatcher(dispatchService)
	settlementService := services.NewSettlementService(rideRepo, partnerRepo, txnRepo, paymentProvider, notifyService, log)
	userService := services.NewUserService(userRepo, storageProvider, log)
	partnerService := services.NewPartnerService(partnerRepo, mechanicRepo, curePartnerRepo, userRepo, txnRepo, presenceService, notifyService, log)
	resqService := services.NewResQService(mechanicRepo, garageRepo, userRepo, txnRepo, notifyService, log)
	cureService := services.NewCureService(curePartnerRepo, doctorRepo, ambulanceRepo, emergencyRepo, notifyService, log)
	appointmentService := services.NewAppointmentService(appointmentRepo, doctorRepo, curePartnerRepo, userRepo, txnRepo, notifyService, log)

	// Driver location pings over the socket feed presence directly.
	wsHandler.OnDriverLocation(func(userID primitive.ObjectID, data map[string]interface{}) {
		lat, okLat := data["latitude"].(float64)
		lng, okLng := data["longitude"].(float64)
		if !okLat || !okLng {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		partner, err := partnerRepo.GetByUserID(ctx, userID)
		if err != nil {
			return
		}
		if err := presenceService.UpdateLocation(ctx, partner.ID, models.NewPoint(lat, lng)); err != nil {
			log.WithError(err).Warn("failed to ingest websocket location ping")
		}
	})

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	if len(cfg.Security.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
			log.WithError(err).Fatal("invalid trusted proxies")
		}
	}

	routes.Setup(engine, cfg, &routes.Handlers{
		Auth:        handlers.NewAuthHandler(authService),
		User:        handlers.NewUserHandler(userService),
		Ride:        handlers.NewRideHandler(rideService),
		Driver:      handlers.NewDriverHandler(partnerService, dispatchService, rideService, presenceService),
		Partner:     handlers.NewPartnerHandler(partnerService),
		Payment:     handlers.NewPaymentHandler(settlementService, partnerService),
		ResQ:        handlers.NewResQHandler(resqService),
		Cure:        handlers.NewCureHandler(cureService),
		Appointment: handlers.NewAppointmentHandler(appointmentService),
		Admin:       handlers.NewAdminHandler(partnerService),
	}, wsHandler, db, redisCache, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
	log.Info("server stopped")
}

func buildSMSProvider(cfg *config.Config, log *logger.Logger) sms.Provider {
	var providers []sms.Provider

	if cfg.SMS.Twilio.AccountSID != "" {
		providers = append(providers, sms.NewTwilioProvider(
			cfg.SMS.Twilio.AccountSID, cfg.SMS.Twilio.AuthToken, cfg.SMS.Twilio.FromNumber))
	}
	if snsProvider, err := sms.NewAWSSNSProvider(cfg.SMS.AWS.Region); err != nil {
		log.WithError(err).Warn("sns provider unavailable")
	} else {
		providers = append(providers, snsProvider)
	}

	if len(providers) == 0 {
		log.Warn("no sms provider configured, login codes will not be delivered")
		return sms.NewFallback()
	}
	return sms.NewFallback(providers...)
}

func buildPaymentProvider(cfg *config.Config, log *logger.Logger) payment.Provider {
	switch cfg.Payment.DefaultProvider {
	case "stripe":
		return payment.NewStripeProvider(cfg.Payment.Stripe.SecretKey, cfg.Payment.Stripe.WebhookSecret)
	default:
		return payment.NewRazorpayProvider(
			cfg.Payment.Razorpay.KeyID, cfg.Payment.Razorpay.KeySecret, cfg.Payment.Razorpay.WebhookSecret)
	}
}

// buildRouteProviders assembles the directions chain in fallback order.
func buildRouteProviders(cfg *config.Config, log *logger.Logger) []maps.DirectionsProvider {
	var providers []maps.DirectionsProvider

	providers = append(providers, maps.NewOSRMProvider(cfg.Maps.OSRM.BaseURL))
	if cfg.Maps.GoogleMaps.APIKey != "" {
		if googleMaps, err := maps.NewGoogleMapsProvider(cfg.Maps.GoogleMaps.APIKey); err != nil {
			log.WithError(err).Warn("google maps provider unavailable")
		} else {
			providers = append(providers, googleMaps)
		}
	}
	return providers
}

func buildStorageProvider(cfg *config.Config, log *logger.Logger) storage.Provider {
	switch cfg.Storage.Provider {
	case "s3":
		s3, err := storage.NewS3Storage(cfg.Storage.AWS.Region, cfg.Storage.AWS.Bucket, cfg.Storage.AWS.CDNDomain)
		if err != nil {
			log.WithError(err).Fatal("failed to init s3 storage")
		}
		return s3
	case "gcs":
		gcs, err := storage.NewGCSStorage(cfg.Storage.GCP.Bucket, cfg.Storage.GCP.CredentialsFile, cfg.Storage.GCP.CDNDomain)
		if err != nil {
			log.WithError(err).Fatal("failed to init gcs storage")
		}
		return gcs
	default:
		local, err := storage.NewLocalStorage(cfg.Storage.Local.BasePath, cfg.Storage.Local.BaseURL)
		if err != nil {
			log.WithError(err).Fatal("failed to init local storage")
		}
		return local
	}
}

func buildPushProvider(cfg *config.Config, log *logger.Logger) push.Provider {
	switch cfg.Push.Provider {
	case "apns":
		if cfg.Push.APNS.KeyFile == "" {
			log.Warn("apns not configured, push notifications disabled")
			return nil
		}
		apns, err := push.NewAPNSProvider(
			cfg.Push.APNS.KeyFile, cfg.Push.APNS.KeyID, cfg.Push.APNS.TeamID,
			cfg.Push.APNS.BundleID, cfg.Push.APNS.Production)
		if err != nil {
			log.WithError(err).Warn("apns provider unavailable, push notifications disabled")
			return nil
		}
		return apns
	default:
		if cfg.Push.FCM.Credentials == "" {
			log.Warn("fcm not configured, push notifications disabled")
			return nil
		}
		fcm, err := push.NewFCMProvider(cfg.Push.FCM.Credentials)
		if err != nil {
			log.WithError(err).Warn("fcm provider unavailable, push notifications disabled")
			return nil
		}
		return fcm
	}
}
