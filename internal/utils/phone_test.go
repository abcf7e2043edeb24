package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already normalized", "+919876543210", "+919876543210"},
		{"bare local number gets country code", "9876543210", "+919876543210"},
		{"formatted input", "+91 98765-43210", "+919876543210"},
		{"non local length kept as is", "19876543210", "+19876543210"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.input))
		})
	}
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("+919876543210"))
	assert.True(t, IsValidPhone("9876543210"))
	assert.False(t, IsValidPhone(""))
	assert.False(t, IsValidPhone("+0123"))
	assert.False(t, IsValidPhone("not-a-phone"))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "*********3210", MaskPhone("+919876543210"))
	assert.Equal(t, "123", MaskPhone("123"))
}

func TestIsValidOTP(t *testing.T) {
	assert.True(t, IsValidOTP("1234", 4))
	assert.True(t, IsValidOTP("654321", 6))
	assert.False(t, IsValidOTP("123", 4))
	assert.False(t, IsValidOTP("12a4", 4))
	assert.False(t, IsValidOTP("", 4))
}

func TestGeneratedCodes(t *testing.T) {
	rideOTP := GenerateRideOTP()
	assert.True(t, IsValidOTP(rideOTP, RideOTPLength))

	loginOTP := GenerateLoginOTP()
	assert.True(t, IsValidOTP(loginOTP, LoginOTPLength))
}

func TestGenerateRideNumber(t *testing.T) {
	number := GenerateRideNumber()
	assert.Regexp(t, `^PG-\d{8}-[A-Z0-9]{6}$`, number)
	assert.NotEqual(t, number, GenerateRideNumber())
}
