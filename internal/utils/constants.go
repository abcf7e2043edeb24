package utils

import "time"

// Application constants
const (
	AppName    = "PathGo"
	AppVersion = "1.0.0"

	DefaultCurrency    = "INR"
	DefaultCountryCode = "+91"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Authentication
	JWTAccessTokenTTL   = 24 * time.Hour
	JWTRefreshTokenTTL  = 7 * 24 * time.Hour
	LoginOTPLength      = 6
	LoginOTPExpiry      = 10 * time.Minute
	LoginOTPMaxAttempts = 3

	// Ride lifecycle
	RideOTPLength       = 4
	OfferWindow         = 20 * time.Second
	SearchWindow        = 90 * time.Second
	DefaultSearchRadius = 10.0 // kilometers
	MaxSearchRadius     = 50.0

	// Emergencies search wider than rides
	EmergencySearchRadius = 25.0

	// Fare
	GSTRate       = 5.0  // percent, inclusive in the quoted fare
	BaseCharge    = 30.0 // INR
	PerKMRate     = 12.0
	PerMinuteRate = 1.5
	MinFare       = 40.0
	MaxFare       = 10000.0

	// Routing fallback
	AverageCitySpeedKMH = 30.0

	// Drivers
	DriverLocationTTL = 60 * time.Second

	// Response statuses
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error messages
const (
	ErrValidationFailed = "Validation failed"
	ErrInternalServer   = "Something went wrong, please try again"
	ErrUnauthorized     = "Authentication required"
	ErrForbidden        = "You do not have access to this resource"
	ErrNotFound         = "Resource not found"
)

// Collection names
const (
	CollectionUsers          = "users"
	CollectionRides          = "rides"
	CollectionPathPartners   = "pathPartners"
	CollectionMechanics      = "mechanics"
	CollectionGarageRequests = "garageRequests"
	CollectionCurePartners   = "curePartners"
	CollectionDoctors        = "doctors"
	CollectionAmbulances     = "ambulances"
	CollectionEmergencyCases = "emergencyCases"
	CollectionAppointments   = "appointments"
	CollectionTransactions   = "transactions"
)

// Cache key prefixes
const (
	CacheOTPPrefix            = "otp:"
	CacheDriverLocationPrefix = "driver_loc:"
	CacheRidePrefix           = "ride:"
	CacheSessionPrefix        = "session:"
)
