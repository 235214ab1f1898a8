package handlers

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"planboard/internal/config"
	"planboard/internal/models"
	"planboard/pkg/logger"
)

// GetAllUsers lists every account. Admin only (gated in middleware).
func GetAllUsers(c *fiber.Ctx) error {
	rows, err := config.DB.Query(
		"SELECT id, email, firstname, is_admin, role, created_at FROM users ORDER BY id")
	if err != nil {
		logger.ErrorLogger.Error("Error fetching users", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching users",
			"success": false,
			"status":  500,
		})
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Firstname, &u.IsAdmin, &u.Role, &u.CreatedAt); err != nil {
			logger.ErrorLogger.Error("Error scanning users", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error scanning users",
				"success": false,
				"status":  500,
			})
		}
		users = append(users, u)
	}

	return c.JSON(fiber.Map{
		"message": "Users fetched successfully",
		"success": true,
		"status":  200,
		"data":    users,
	})
}

// GetUser returns one profile. Non-admins may only fetch themselves.
func GetUser(c *fiber.Ctx) error {
	actorID := c.Locals("userID").(int)
	isAdmin := c.Locals("isAdmin").(bool)

	targetID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid user ID",
			"success": false,
			"status":  400,
		})
	}
	if !isAdmin && targetID != actorID {
		return c.Status(403).JSON(fiber.Map{
			"message": "Forbidden",
			"success": false,
			"status":  403,
		})
	}

	var u models.User
	err = config.DB.QueryRow(
		"SELECT id, email, firstname, is_admin, role, created_at FROM users WHERE id = $1",
		targetID).Scan(&u.ID, &u.Email, &u.Firstname, &u.IsAdmin, &u.Role, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(404).JSON(fiber.Map{
				"message": "User not found",
				"success": false,
				"status":  404,
			})
		}
		logger.ErrorLogger.Error("Error fetching user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching user",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "User found",
		"success": true,
		"status":  200,
		"data":    u,
	})
}

// UpdateUser edits a profile. Non-admins may only edit themselves; the
// firstname is stored capitalized like everywhere else.
func UpdateUser(c *fiber.Ctx) error {
	actorID := c.Locals("userID").(int)
	isAdmin := c.Locals("isAdmin").(bool)

	targetID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid user ID",
			"success": false,
			"status":  400,
		})
	}
	if !isAdmin && targetID != actorID {
		return c.Status(403).JSON(fiber.Map{
			"message": "Forbidden",
			"success": false,
			"status":  403,
		})
	}

	type UpdateUserRequest struct {
		Firstname *string `json:"firstname"`
		Role      *string `json:"role"`
	}
	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	if req.Firstname != nil {
		name := models.NormalizeFirstname(*req.Firstname)
		if len(name) < 2 {
			return c.Status(400).JSON(fiber.Map{
				"message": "First Name must be greater than 1 character",
				"success": false,
				"status":  400,
			})
		}
		if _, err := config.DB.Exec("UPDATE users SET firstname = $1 WHERE id = $2", name, targetID); err != nil {
			logger.ErrorLogger.Error("Error updating user", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error updating user",
				"success": false,
				"status":  500,
			})
		}
	}

	// Only admins may reassign roles.
	if req.Role != nil && isAdmin {
		if _, err := config.DB.Exec("UPDATE users SET role = $1 WHERE id = $2", *req.Role, targetID); err != nil {
			logger.ErrorLogger.Error("Error updating user role", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error updating user role",
				"success": false,
				"status":  500,
			})
		}
	}

	logger.AuditLogger.Info("User updated", zap.Int("user_id", targetID), zap.Int("actor_id", actorID))
	return c.JSON(fiber.Map{
		"message": "User updated successfully",
		"success": true,
		"status":  200,
	})
}

// DeleteUser removes an account. Notifications and notes cascade with it.
// Admin only (gated in middleware).
func DeleteUser(c *fiber.Ctx) error {
	targetID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid user ID",
			"success": false,
			"status":  400,
		})
	}

	// Detach tasks first: tasks survive their assignee and go back to
	// having no owner.
	if _, err := config.DB.Exec("UPDATE tasks SET assigned_to = NULL WHERE assigned_to = $1", targetID); err != nil {
		logger.ErrorLogger.Error("Error detaching tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error deleting user",
			"success": false,
			"status":  500,
		})
	}

	result, err := config.DB.Exec("DELETE FROM users WHERE id = $1", targetID)
	if err != nil {
		logger.ErrorLogger.Error("Error deleting user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error deleting user",
			"success": false,
			"status":  500,
		})
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return c.Status(404).JSON(fiber.Map{
			"message": "User not found",
			"success": false,
			"status":  404,
		})
	}

	logger.AuditLogger.Info("User deleted", zap.Int("user_id", targetID))
	return c.JSON(fiber.Map{
		"message": "User deleted successfully",
		"success": true,
		"status":  200,
	})
}
