package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"planboard/internal/config"
	"planboard/internal/models"
	"planboard/internal/taskflow"
	"planboard/pkg/logger"
)

const taskColumns = "id, title, description, assigned_to, status, priority, deadline, file_name, last_edited_by, last_edited_at, created_at"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		t            models.Task
		assignedTo   sql.NullInt64
		deadline     sql.NullTime
		fileName     sql.NullString
		lastEditedBy sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &assignedTo, &t.Status, &t.Priority,
		&deadline, &fileName, &lastEditedBy, &t.LastEditedAt, &t.CreatedAt)
	if err != nil {
		return t, err
	}
	if assignedTo.Valid {
		v := int(assignedTo.Int64)
		t.AssignedTo = &v
	}
	if deadline.Valid {
		v := deadline.Time
		t.Deadline = &v
	}
	if fileName.Valid {
		v := fileName.String
		t.FileName = &v
	}
	if lastEditedBy.Valid {
		v := int(lastEditedBy.Int64)
		t.LastEditedBy = &v
	}
	return t, nil
}

func fetchTask(taskID int) (models.Task, error) {
	row := config.DB.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE id = $1", taskID)
	return scanTask(row)
}

func taskCacheKey(taskID int) string {
	return fmt.Sprintf("task:%d", taskID)
}

// cacheTask stores the task record in Redis for an hour. Cache failures
// are logged, never surfaced: the database already answered.
func cacheTask(t models.Task) {
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := config.RedisClient.Set(config.Ctx, taskCacheKey(t.ID), data, time.Hour).Err(); err != nil {
		logger.ErrorLogger.Error("Error caching task", zap.Error(err), zap.Int("task_id", t.ID))
	}
}

func dropTaskCache(taskID int) {
	config.RedisClient.Del(config.Ctx, taskCacheKey(taskID))
}

func taskNotFound(c *fiber.Ctx, err error) error {
	logger.ErrorLogger.Error("Task not found", zap.Error(err))
	return c.Status(404).JSON(fiber.Map{
		"message": "Task not found",
		"success": false,
		"status":  404,
	})
}

func CreateTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	type TaskRequest struct {
		Title       string `json:"title" validate:"required"`
		Description string `json:"description"`
		Status      string `json:"status"`
		Priority    string `json:"priority"`
		Deadline    string `json:"deadline"`
		AssignedTo  *int   `json:"assigned_to"`
	}

	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in create task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	// Empty title rejects before anything is written.
	if err := config.Validate.Struct(req); err != nil {
		logger.ErrorLogger.Error("Validation error in create task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Title is required",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	status := req.Status
	if status == "" {
		status = models.StatusAssigned
	}
	if !taskflow.ValidInitialStatus(status) {
		logger.ErrorLogger.Error("Invalid status in create task", zap.String("status", status))
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid status",
			"success": false,
			"status":  400,
		})
	}

	priority := req.Priority
	if priority == "" {
		priority = models.DefaultPriority
	}

	var deadline *time.Time
	if req.Deadline != "" {
		parsed, err := taskflow.ParseDeadline(req.Deadline)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{
				"message": err.Error(),
				"success": false,
				"status":  400,
			})
		}
		deadline = &parsed
	}

	// Shared tasks sit in the pool unassigned; everything else defaults to
	// the creating user unless an assignee was given.
	var assignedTo *int
	if status != models.StatusShared {
		assignedTo = req.AssignedTo
		if assignedTo == nil {
			assignedTo = &userID
		}
	}

	var taskID int
	err := config.DB.QueryRow(
		"INSERT INTO tasks (title, description, assigned_to, status, priority, deadline, last_edited_by) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id",
		req.Title, req.Description, assignedTo, status, priority, deadline, userID,
	).Scan(&taskID)
	if err != nil {
		logger.ErrorLogger.Error("Error creating task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error creating task",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Task created", zap.Int("task_id", taskID), zap.Int("user_id", userID))
	return c.Status(201).JSON(fiber.Map{
		"message": "Task created successfully",
		"success": true,
		"status":  201,
		"id":      taskID,
	})
}

// ListTasks returns the task dashboard set: every task for admins, own
// tasks otherwise, newest first.
func ListTasks(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	isAdmin := c.Locals("isAdmin").(bool)

	var rows *sql.Rows
	var err error
	if isAdmin {
		rows, err = config.DB.Query("SELECT " + taskColumns + " FROM tasks ORDER BY created_at DESC")
	} else {
		rows, err = config.DB.Query("SELECT "+taskColumns+" FROM tasks WHERE assigned_to = $1 ORDER BY created_at DESC", userID)
	}
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching tasks",
			"success": false,
			"status":  500,
		})
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			logger.ErrorLogger.Error("Error scanning tasks", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error scanning tasks",
				"success": false,
				"status":  500,
			})
		}
		tasks = append(tasks, task)
	}
	if err = rows.Err(); err != nil {
		logger.ErrorLogger.Error("Error iterating over tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error iterating over tasks",
			"success": false,
			"status":  500,
		})
	}

	for _, task := range tasks {
		cacheTask(task)
	}

	return c.JSON(fiber.Map{
		"message": "Tasks fetched successfully",
		"success": true,
		"status":  200,
		"data":    tasks,
	})
}

// SharedTasks lists the unclaimed pool, visible to every authenticated user.
func SharedTasks(c *fiber.Ctx) error {
	rows, err := config.DB.Query("SELECT "+taskColumns+" FROM tasks WHERE status = $1 ORDER BY created_at DESC", models.StatusShared)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching shared tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching shared tasks",
			"success": false,
			"status":  500,
		})
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			logger.ErrorLogger.Error("Error scanning shared tasks", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error scanning shared tasks",
				"success": false,
				"status":  500,
			})
		}
		tasks = append(tasks, task)
	}

	return c.JSON(fiber.Map{
		"message": "Shared tasks fetched successfully",
		"success": true,
		"status":  200,
		"data":    tasks,
	})
}

// GetTask returns a single task as a structured record with the deadline
// formatted as YYYY-MM-DD HH:MM. Served from the Redis cache when possible.
func GetTask(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid task ID",
			"success": false,
			"status":  400,
		})
	}

	if cached, err := config.RedisClient.Get(config.Ctx, taskCacheKey(taskID)).Result(); err == nil {
		var task models.Task
		if err = json.Unmarshal([]byte(cached), &task); err == nil {
			return c.JSON(fiber.Map{
				"message": "Task found (from cache)",
				"success": true,
				"status":  200,
				"data":    task.Record(),
			})
		}
	}

	task, err := fetchTask(taskID)
	if err != nil {
		return taskNotFound(c, err)
	}
	cacheTask(task)

	return c.JSON(fiber.Map{
		"message": "Task found",
		"success": true,
		"status":  200,
		"data":    task.Record(),
	})
}

// UpdateTask is a free-form edit open to any authenticated user. A
// malformed deadline does not abort the edit: the other fields commit and
// the response carries a validation message, with the stored deadline left
// untouched.
func UpdateTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	taskID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid task ID",
			"success": false,
			"status":  400,
		})
	}

	task, err := fetchTask(taskID)
	if err != nil {
		return taskNotFound(c, err)
	}

	type UpdateTaskRequest struct {
		Title       string  `json:"title" validate:"required"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
		Priority    *string `json:"priority"`
		Deadline    *string `json:"deadline"`
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in update task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	// Empty title rejects the whole edit, nothing commits.
	if err := config.Validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Title is required",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	task.Title = req.Title
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		if !taskflow.ValidStatus(*req.Status) {
			return c.Status(400).JSON(fiber.Map{
				"message": "Invalid status",
				"success": false,
				"status":  400,
			})
		}
		task.Status = *req.Status
	}
	if req.Priority != nil && *req.Priority != "" {
		task.Priority = *req.Priority
	}

	var deadlineWarning string
	if req.Deadline != nil && *req.Deadline != "" {
		parsed, err := taskflow.ParseDeadline(*req.Deadline)
		if err != nil {
			// Keep the stored deadline, commit everything else.
			deadlineWarning = err.Error()
		} else {
			task.Deadline = &parsed
		}
	}

	_, err = config.DB.Exec(
		"UPDATE tasks SET title = $1, description = $2, status = $3, priority = $4, deadline = $5, last_edited_by = $6, last_edited_at = NOW() WHERE id = $7",
		task.Title, task.Description, task.Status, task.Priority, task.Deadline, userID, taskID,
	)
	if err != nil {
		logger.ErrorLogger.Error("Error updating task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error updating task",
			"success": false,
			"status":  500,
		})
	}

	dropTaskCache(taskID)
	updated, err := fetchTask(taskID)
	if err == nil {
		cacheTask(updated)
	}

	message := "Task updated successfully"
	if deadlineWarning != "" {
		message = "Task updated, deadline unchanged: " + deadlineWarning
	}
	logger.AuditLogger.Info("Task updated", zap.Int("task_id", taskID), zap.Int("user_id", userID))
	return c.JSON(fiber.Map{
		"message": message,
		"success": true,
		"status":  200,
		"data":    updated.Record(),
	})
}

// TakeTask claims a shared task for the acting user. A task that is not
// currently shared is left untouched and the request still succeeds.
func TakeTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	taskID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid task ID",
			"success": false,
			"status":  400,
		})
	}

	task, err := fetchTask(taskID)
	if err != nil {
		return taskNotFound(c, err)
	}

	if taskflow.CanTake(task.Status) {
		_, err = config.DB.Exec(
			"UPDATE tasks SET assigned_to = $1, status = $2, last_edited_by = $1, last_edited_at = NOW() WHERE id = $3",
			userID, models.StatusInProgress, taskID,
		)
		if err != nil {
			logger.ErrorLogger.Error("Error taking task", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error taking task",
				"success": false,
				"status":  500,
			})
		}
		dropTaskCache(taskID)
		task, _ = fetchTask(taskID)
		logger.AuditLogger.Info("Task taken", zap.Int("task_id", taskID), zap.Int("user_id", userID))
	}

	return c.JSON(fiber.Map{
		"message": "Task taken over",
		"success": true,
		"status":  200,
		"data":    task.Record(),
	})
}

// FinishTask marks the task completed, optionally attaching an uploaded
// file. Only the current assignee may finish a task.
func FinishTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	taskID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid task ID",
			"success": false,
			"status":  400,
		})
	}

	task, err := fetchTask(taskID)
	if err != nil {
		return taskNotFound(c, err)
	}

	if !taskflow.CanFinish(task, userID) {
		logger.SecurityLogger.Warn("Finish denied",
			zap.Int("task_id", taskID), zap.Int("user_id", userID))
		return c.Status(403).JSON(fiber.Map{
			"message": "Only the assignee can finish this task",
			"success": false,
			"status":  403,
		})
	}

	fileName := task.FileName
	if file, err := c.FormFile("file"); err == nil && file != nil {
		if err := validateFile(file); err != nil {
			return c.Status(400).JSON(fiber.Map{
				"message": err.Error(),
				"success": false,
				"status":  400,
			})
		}
		stored, err := saveUpload(file)
		if err != nil {
			logger.ErrorLogger.Error("Error saving file", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error saving file",
				"success": false,
				"status":  500,
			})
		}
		fileName = &stored
	}

	_, err = config.DB.Exec(
		"UPDATE tasks SET status = $1, file_name = $2, last_edited_by = $3, last_edited_at = NOW() WHERE id = $4",
		models.StatusCompleted, fileName, userID, taskID,
	)
	if err != nil {
		logger.ErrorLogger.Error("Error finishing task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error finishing task",
			"success": false,
			"status":  500,
		})
	}

	dropTaskCache(taskID)
	updated, _ := fetchTask(taskID)
	logger.AuditLogger.Info("Task finished", zap.Int("task_id", taskID), zap.Int("user_id", userID))
	return c.JSON(fiber.Map{
		"message": "Task completed successfully",
		"success": true,
		"status":  200,
		"data":    updated.Record(),
	})
}

// CompleteTask applies a requested status, or toggles completion when the
// request carries no usable status. An unusable fallback lands on
// in_progress.
func CompleteTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	taskID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid task ID",
			"success": false,
			"status":  400,
		})
	}

	type CompleteRequest struct {
		Status   string `json:"status"`
		Fallback string `json:"fallback"`
	}
	var req CompleteRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		logger.ErrorLogger.Error("Bad request in complete task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	task, err := fetchTask(taskID)
	if err != nil {
		return taskNotFound(c, err)
	}

	newStatus := taskflow.ResolveCompletion(task.Status, req.Status, req.Fallback)
	_, err = config.DB.Exec(
		"UPDATE tasks SET status = $1, last_edited_by = $2, last_edited_at = NOW() WHERE id = $3",
		newStatus, userID, taskID,
	)
	if err != nil {
		logger.ErrorLogger.Error("Error completing task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error completing task",
			"success": false,
			"status":  500,
		})
	}

	dropTaskCache(taskID)
	updated, _ := fetchTask(taskID)
	logger.AuditLogger.Info("Task status changed",
		zap.Int("task_id", taskID), zap.String("status", newStatus), zap.Int("user_id", userID))
	return c.JSON(fiber.Map{
		"message": "Task status updated",
		"success": true,
		"status":  200,
		"data":    updated.Record(),
	})
}
