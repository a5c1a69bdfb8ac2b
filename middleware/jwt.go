package middleware

import (
	"fillop/config"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// GenerateJWT generates a JWT token for the user
func GenerateJWT(userID uint, name, role, email string) (string, error) {
	claims := jwt.MapClaims{
		"userId": userID,
		"name":   name,
		"role":   role,
		"email":  email,
		"iat":    time.Now().Unix(),                     // issued at
		"exp":    time.Now().Add(24 * time.Hour).Unix(), // expiry 24h
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	jwtSecret := []byte(config.AppConfig.JWTKey)

	return token.SignedString(jwtSecret)
}

func parseBearer(c *fiber.Ctx) (jwt.MapClaims, string) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, "Missing or invalid Authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, "Invalid Authorization header format"
	}
	tokenString := authHeader[len("Bearer "):]

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTKey), nil
	})
	if err != nil || !token.Valid {
		return nil, "Invalid or expired token"
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["userId"] == nil {
		return nil, "Invalid token payload"
	}
	if _, ok := claims["userId"].(float64); !ok {
		return nil, "Invalid token payload"
	}
	return claims, ""
}

func storeClaims(c *fiber.Ctx, claims jwt.MapClaims) {
	// JWT numbers decode as float64
	c.Locals("userId", uint(claims["userId"].(float64)))
	if role, ok := claims["role"].(string); ok {
		c.Locals("role", role)
	}
}

// JWTMiddleware is a middleware to check for valid JWT token in the request
func JWTMiddleware(c *fiber.Ctx) error {
	claims, msg := parseBearer(c)
	if claims == nil {
		return JsonResponse(c, fiber.StatusUnauthorized, false, msg, nil)
	}
	storeClaims(c, claims)
	return c.Next()
}

// OptionalJWT populates userId when a valid bearer token is present and lets
// anonymous requests through otherwise.
func OptionalJWT(c *fiber.Ctx) error {
	if claims, _ := parseBearer(c); claims != nil {
		storeClaims(c, claims)
	}
	return c.Next()
}

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Validation failed!", errors)
}
