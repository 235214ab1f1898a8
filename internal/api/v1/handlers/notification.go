package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"planboard/internal/config"
	"planboard/internal/models"
	"planboard/internal/taskflow"
	"planboard/pkg/logger"
)

func fetchNotifications(userID int, limit int) ([]models.Notification, error) {
	query := "SELECT id, user_id, title, message, is_read, created_at FROM notifications WHERE user_id = $1 ORDER BY created_at DESC"
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	rows, err := config.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func countUnread(userID int) (int, error) {
	var count int
	err := config.DB.QueryRow(
		"SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE", userID).Scan(&count)
	return count, err
}

// Inbox lists the acting user's notifications, newest first, with the
// unread count.
func Inbox(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	notifications, err := fetchNotifications(userID, 0)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching notifications", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching notifications",
			"success": false,
			"status":  500,
		})
	}
	unread, err := countUnread(userID)
	if err != nil {
		logger.ErrorLogger.Error("Error counting unread notifications", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error counting unread notifications",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Notifications fetched successfully",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"notifications": notifications,
			"unread_count":  unread,
		},
	})
}

// MarkNotificationRead flips the read flag on one of the acting user's
// notifications. Another user's notification id is a 404, not a 403: the
// lookup is owner-scoped.
func MarkNotificationRead(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	notifID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid notification ID",
			"success": false,
			"status":  400,
		})
	}

	result, err := config.DB.Exec(
		"UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2",
		notifID, userID,
	)
	if err != nil {
		logger.ErrorLogger.Error("Error marking notification read", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error marking notification read",
			"success": false,
			"status":  500,
		})
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return c.Status(404).JSON(fiber.Map{
			"ok":      false,
			"message": "Notification not found",
			"success": false,
			"status":  404,
		})
	}

	logger.AuditLogger.Info("Notification read", zap.Int("notification_id", notifID), zap.Int("user_id", userID))
	return c.JSON(fiber.Map{
		"ok":      true,
		"message": "Notification marked as read",
		"success": true,
		"status":  200,
	})
}

// BulkAssign creates one task per selected user (or a single shared pool
// task) and notifies every affected user. Admin only; the gate runs in
// middleware. Each created notification is also pushed over the websocket
// hub.
func BulkAssign(c *fiber.Ctx) error {
	adminID := c.Locals("userID").(int)

	type BulkAssignRequest struct {
		Title       string `json:"title" validate:"required"`
		Description string `json:"description"`
		Priority    string `json:"priority"`
		Deadline    string `json:"deadline"`
		UserIDs     []int  `json:"user_ids" validate:"required,min=1"`
		Shared      bool   `json:"shared"`
	}

	var req BulkAssignRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in bulk assign", zap.Error(err))
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

	priority := req.Priority
	if priority == "" {
		priority = models.DefaultPriority
	}

	var deadline interface{}
	if req.Deadline != "" {
		parsed, err := taskflow.ParseDeadline(req.Deadline)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{
				"message": err.Error(),
				"success": false,
				"status":  400,
			})
		}
		deadline = parsed
	}

	taskIDs := []int{}
	insertTask := func(assignedTo interface{}, status string) (int, error) {
		var id int
		err := config.DB.QueryRow(
			"INSERT INTO tasks (title, description, assigned_to, status, priority, deadline, last_edited_by) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id",
			req.Title, req.Description, assignedTo, status, priority, deadline, adminID,
		).Scan(&id)
		return id, err
	}

	if req.Shared {
		// One pool task, visible to everyone until claimed.
		id, err := insertTask(nil, models.StatusShared)
		if err != nil {
			logger.ErrorLogger.Error("Error creating shared task", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error creating task",
				"success": false,
				"status":  500,
			})
		}
		taskIDs = append(taskIDs, id)
	} else {
		for _, uid := range req.UserIDs {
			id, err := insertTask(uid, models.StatusAssigned)
			if err != nil {
				logger.ErrorLogger.Error("Error creating task", zap.Error(err), zap.Int("user_id", uid))
				return c.Status(500).JSON(fiber.Map{
					"message": "Error creating task",
					"success": false,
					"status":  500,
				})
			}
			taskIDs = append(taskIDs, id)
		}
	}

	notifTitle := "New task assigned"
	if req.Shared {
		notifTitle = "New shared task available"
	}
	message := fmt.Sprintf("Task %q is due soon. Check your dashboard.", req.Title)
	if deadline != nil {
		message = fmt.Sprintf("Task %q is due %s.", req.Title, req.Deadline)
	}

	for _, uid := range req.UserIDs {
		var notifID int
		err := config.DB.QueryRow(
			"INSERT INTO notifications (user_id, title, message) VALUES ($1, $2, $3) RETURNING id",
			uid, notifTitle, message,
		).Scan(&notifID)
		if err != nil {
			logger.ErrorLogger.Error("Error creating notification", zap.Error(err), zap.Int("user_id", uid))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error creating notification",
				"success": false,
				"status":  500,
			})
		}

		config.Hub.BroadcastJSON(fiber.Map{
			"type":    "notification",
			"user_id": uid,
			"title":   notifTitle,
			"message": message,
		})
	}

	logger.AuditLogger.Info("Bulk assignment",
		zap.Int("admin_id", adminID),
		zap.Int("tasks", len(taskIDs)),
		zap.Int("users", len(req.UserIDs)),
		zap.Bool("shared", req.Shared),
	)
	return c.Status(201).JSON(fiber.Map{
		"message": "Tasks assigned successfully",
		"success": true,
		"status":  201,
		"data": fiber.Map{
			"task_ids": taskIDs,
		},
	})
}

// fetchAllNotifications is used by the admin calendar to derive meeting
// items across every user.
func fetchAllNotifications() ([]models.Notification, error) {
	rows, err := config.DB.Query(
		"SELECT id, user_id, title, message, is_read, created_at FROM notifications ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
