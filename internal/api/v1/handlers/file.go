package handlers

import (
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"planboard/internal/config"
	"planboard/pkg/logger"
	"planboard/pkg/storage"
)

// validateFile enforces the upload constraints: max 5MB, image or PDF.
func validateFile(file *multipart.FileHeader) error {
	if file.Size > 5<<20 {
		return fiber.NewError(fiber.StatusBadRequest, "File size exceeds the limit of 5MB")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowedExts := map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".pdf": true}
	if !allowedExts[ext] {
		return fiber.NewError(fiber.StatusBadRequest, "File type not allowed")
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.Contains(contentType, "image") && !strings.Contains(contentType, "pdf") {
		return fiber.NewError(fiber.StatusBadRequest, "File must be an image or PDF")
	}

	return nil
}

// saveUpload streams the multipart file into the upload store and returns
// the stored name (sanitized, suffixed on collision).
func saveUpload(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	return config.Uploads.Save(file.Filename, src)
}

// AttachTaskFile uploads a supporting file and links it to the task.
func AttachTaskFile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	taskID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid task ID",
			"success": false,
			"status":  400,
		})
	}

	if _, err := fetchTask(taskID); err != nil {
		return taskNotFound(c, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		logger.ErrorLogger.Error("Error uploading file", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Error uploading file",
			"success": false,
			"status":  400,
		})
	}

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

	_, err = config.DB.Exec(
		"UPDATE tasks SET file_name = $1, last_edited_by = $2, last_edited_at = NOW() WHERE id = $3",
		stored, userID, taskID,
	)
	if err != nil {
		logger.ErrorLogger.Error("Error linking file to task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error linking file to task",
			"success": false,
			"status":  500,
		})
	}

	dropTaskCache(taskID)
	logger.AuditLogger.Info("File attached", zap.Int("task_id", taskID), zap.String("filename", stored))
	return c.JSON(fiber.Map{
		"message": "File uploaded successfully",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"filename": stored,
			"size":     file.Size,
		},
	})
}

// GetFile serves a stored attachment, falling back to the legacy upload
// directory for files saved under the previous layout.
func GetFile(c *fiber.Ctx) error {
	filename := c.Params("filename")
	path, err := config.Uploads.Resolve(filename)
	if err != nil {
		if err == storage.ErrNotFound {
			return c.Status(404).JSON(fiber.Map{
				"message": "File not found",
				"success": false,
				"status":  404,
			})
		}
		logger.ErrorLogger.Error("Error resolving file", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error resolving file",
			"success": false,
			"status":  500,
		})
	}
	return c.SendFile(path)
}
