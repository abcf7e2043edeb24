package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStatus string
type UserRole string
type AuthProvider string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"

	RoleRider       UserRole = "rider"
	RolePartner     UserRole = "partner"
	RoleMechanic    UserRole = "mechanic"
	RoleCurePartner UserRole = "cure_partner"
	RoleAdmin       UserRole = "admin"

	AuthProviderPhone  AuthProvider = "phone"
	AuthProviderEmail  AuthProvider = "email"
	AuthProviderGoogle AuthProvider = "google"
)

// User is a rider account. Partner/mechanic/cure accounts carry their own
// documents keyed by the same phone identity; the JWT session is the only
// source of truth for "who am I", profile data is always fetched fresh.
type User struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name            string             `json:"name" bson:"name" validate:"required,min=2,max=60"`
	Email           string             `json:"email" bson:"email" validate:"omitempty,email"`
	Phone           string             `json:"phone" bson:"phone" validate:"required"`
	CountryCode     string             `json:"country_code" bson:"country_code" default:"+91"`
	ProfilePhoto    string             `json:"profile_photo" bson:"profile_photo"`
	Role            UserRole           `json:"role" bson:"role" validate:"required"`
	Status          UserStatus         `json:"status" bson:"status" default:"active"`
	AuthProvider    AuthProvider       `json:"auth_provider" bson:"auth_provider" default:"phone"`
	SocialID        string             `json:"social_id" bson:"social_id"`
	DeviceToken     string             `json:"-" bson:"device_token"`
	DevicePlatform  string             `json:"-" bson:"device_platform"`
	IsPhoneVerified bool               `json:"is_phone_verified" bson:"is_phone_verified"`
	IsEmailVerified bool               `json:"is_email_verified" bson:"is_email_verified"`
	LastLoginAt     *time.Time         `json:"last_login_at" bson:"last_login_at"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}
