package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GenerateOTP generates a 6-digit OTP
func GenerateOTP() string {
	var b strings.Builder
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			panic(fmt.Sprintf("otp: %v", err))
		}
		b.WriteString(n.String())
	}
	return b.String()
}

// ListResponse is the envelope every paged list endpoint returns.
func ListResponse(items interface{}, total int64, offset, limit int) fiber.Map {
	return fiber.Map{
		"items":  items,
		"total":  total,
		"offset": offset,
		"limit":  limit,
	}
}

// LikePattern builds a case-insensitive LIKE pattern for a search term.
func LikePattern(term string) string {
	return "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
}
