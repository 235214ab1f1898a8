package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"planboard/internal/config"
	"planboard/pkg/logger"
)

// UseToken validates the bearer token and stores the acting identity in
// locals: userID (int), isAdmin (bool), role (string).
func UseToken(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "No token provided"})
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token format"})
	}
	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return config.SecretKey, nil
	})
	if err != nil || !token.Valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token"})
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token claims"})
	}
	if exp, ok := claims["exp"].(float64); !ok || int64(exp) < time.Now().Unix() {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Token expired"})
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid user ID in token"})
	}
	role, ok := claims["role"].(string)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid role in token"})
	}
	isAdmin, _ := claims["is_admin"].(bool)

	c.Locals("userID", int(userID))
	c.Locals("role", role)
	c.Locals("isAdmin", isAdmin)
	return c.Next()
}

// RequireAdmin is the single admin gate applied before any admin-only
// route. Must run after UseToken.
func RequireAdmin(c *fiber.Ctx) error {
	isAdmin, _ := c.Locals("isAdmin").(bool)
	if !isAdmin {
		logger.SecurityLogger.Warn("Admin route denied",
			zap.Int("user_id", c.Locals("userID").(int)),
			zap.String("path", c.Path()),
		)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Access denied",
			"success": false,
			"status":  403,
		})
	}
	return c.Next()
}
