package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	letterBytes  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	numberBytes  = "0123456789"
	alphanumeric = letterBytes + numberBytes
)

func GenerateRandomString(length int) string {
	return generateRandom(length, alphanumeric)
}

func GenerateRandomNumericString(length int) string {
	return generateRandom(length, numberBytes)
}

func generateRandom(length int, charset string) string {
	result := make([]byte, length)
	charsetLength := big.NewInt(int64(len(charset)))

	for i := range result {
		num, _ := rand.Int(rand.Reader, charsetLength)
		result[i] = charset[num.Int64()]
	}

	return string(result)
}

// GenerateRideOTP is the 4-digit pickup confirmation code generated at
// ride creation and verified server side before the trip may start.
func GenerateRideOTP() string {
	return GenerateRandomNumericString(RideOTPLength)
}

// GenerateLoginOTP is the 6-digit sign-in code delivered over SMS or
// email and held in Redis until verified or expired.
func GenerateLoginOTP() string {
	return GenerateRandomNumericString(LoginOTPLength)
}

// GenerateRideNumber produces a human-readable reference like
// PG-20260828-4F7K2M.
func GenerateRideNumber() string {
	return fmt.Sprintf("PG-%s-%s", time.Now().Format("20060102"), strings.ToUpper(GenerateRandomString(6)))
}

func SecureRandomInt(max int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(max)))
	return int(n.Int64())
}
