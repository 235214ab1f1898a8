package handlers

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"planboard/internal/config"
	"planboard/internal/models"
	"planboard/pkg/logger"
)

// issueToken signs a one-hour session token for the given account.
func issueToken(userID int, role string, isAdmin bool) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  userID,
		"role":     role,
		"is_admin": isAdmin,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	return token.SignedString(config.SecretKey)
}

func Signup(c *fiber.Ctx) error {
	type SignupRequest struct {
		Email     string `json:"email" validate:"required,email,min=4"`
		Firstname string `json:"firstname" validate:"required,min=2"`
		Password1 string `json:"password1" validate:"required,min=7"`
		Password2 string `json:"password2" validate:"required"`
	}

	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in signup", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	if err := config.Validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during signup", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	if req.Password1 != req.Password2 {
		return c.Status(400).JSON(fiber.Map{
			"message": "Passwords do not match",
			"success": false,
			"status":  400,
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password1), bcrypt.DefaultCost)
	if err != nil {
		logger.ErrorLogger.Error("Error hashing password", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error hashing password",
			"success": false,
			"status":  500,
		})
	}

	firstname := models.NormalizeFirstname(req.Firstname)

	var userID int
	err = config.DB.QueryRow(
		"INSERT INTO users (email, password, firstname, is_admin, role) VALUES ($1, $2, $3, FALSE, 'user') RETURNING id",
		req.Email, string(hashedPassword), firstname).Scan(&userID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			logger.SecurityLogger.Warn("Duplicate email on signup", zap.String("email", req.Email))
			return c.Status(409).JSON(fiber.Map{
				"message": "Email already exists",
				"success": false,
				"status":  409,
			})
		}
		logger.ErrorLogger.Error("Error creating user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error creating user",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("User signed up", zap.Int("user_id", userID))
	return c.Status(201).JSON(fiber.Map{
		"message": "Account created successfully",
		"success": true,
		"status":  201,
		"data": fiber.Map{
			"id": userID,
		},
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userRow struct {
	ID        int
	Email     string
	Password  string
	Firstname string
	IsAdmin   bool
	Role      string
}

func fetchUserByEmail(email string) (userRow, error) {
	var u userRow
	err := config.DB.QueryRow(
		"SELECT id, email, password, firstname, is_admin, role FROM users WHERE email = $1",
		email).Scan(&u.ID, &u.Email, &u.Password, &u.Firstname, &u.IsAdmin, &u.Role)
	return u, err
}

// Login authenticates regular accounts. Admin accounts must use the admin
// login and are rejected here before the password is even checked.
func Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in login", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}
	if err := config.Validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during login", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	user, err := fetchUserByEmail(req.Email)
	if err != nil {
		logger.SecurityLogger.Warn("Login for unknown email", zap.String("email", req.Email))
		return c.Status(401).JSON(fiber.Map{
			"message": "Invalid credentials",
			"success": false,
			"status":  401,
		})
	}

	if user.IsAdmin {
		logger.SecurityLogger.Warn("Admin account on user login", zap.String("email", req.Email))
		return c.Status(403).JSON(fiber.Map{
			"message": "Admin accounts must login using Admin Login",
			"success": false,
			"status":  403,
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.SecurityLogger.Warn("Invalid password", zap.String("email", req.Email))
		return c.Status(401).JSON(fiber.Map{
			"message": "Invalid credentials",
			"success": false,
			"status":  401,
		})
	}

	tokenString, err := issueToken(user.ID, user.Role, user.IsAdmin)
	if err != nil {
		logger.ErrorLogger.Error("Error generating token", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error generating token",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Login success", zap.Int("user_id", user.ID))
	return c.JSON(fiber.Map{
		"message": "Login success",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"user_id":  user.ID,
			"role":     user.Role,
			"is_admin": user.IsAdmin,
			"token":    tokenString,
		},
	})
}

// AdminLogin authenticates administrator accounts only.
func AdminLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in admin login", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}
	if err := config.Validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	user, err := fetchUserByEmail(req.Email)
	if err != nil || !user.IsAdmin {
		if err != nil && err != sql.ErrNoRows {
			logger.ErrorLogger.Error("Error fetching admin account", zap.Error(err))
		}
		logger.SecurityLogger.Warn("Admin account not found", zap.String("email", req.Email))
		return c.Status(401).JSON(fiber.Map{
			"message": "Admin account not found",
			"success": false,
			"status":  401,
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.SecurityLogger.Warn("Invalid admin password", zap.String("email", req.Email))
		return c.Status(401).JSON(fiber.Map{
			"message": "Invalid credentials",
			"success": false,
			"status":  401,
		})
	}

	tokenString, err := issueToken(user.ID, user.Role, user.IsAdmin)
	if err != nil {
		logger.ErrorLogger.Error("Error generating token", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error generating token",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Admin login success", zap.Int("user_id", user.ID))
	return c.JSON(fiber.Map{
		"message": "Admin login successful",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"user_id":  user.ID,
			"role":     user.Role,
			"is_admin": true,
			"token":    tokenString,
		},
	})
}
