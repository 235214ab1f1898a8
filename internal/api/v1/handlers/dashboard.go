package handlers

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"planboard/internal/config"
	"planboard/internal/models"
	"planboard/internal/planner"
	"planboard/pkg/logger"
)

func queryTasks(query string, args ...interface{}) ([]models.Task, error) {
	var rows *sql.Rows
	var err error
	rows, err = config.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// UserDashboard returns the per-user view: the rolling planned-days strip
// (yesterday through +7 days), recent notifications and the unread count.
func UserDashboard(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	now := time.Now()

	tasks, err := queryTasks("SELECT "+taskColumns+" FROM tasks WHERE assigned_to = $1 ORDER BY deadline", userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching dashboard tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching tasks",
			"success": false,
			"status":  500,
		})
	}

	notifications, err := fetchNotifications(userID, 30)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching dashboard notifications", zap.Error(err))
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

	meetings := planner.MeetingsFromNotifications(notifications)
	plannedDays := planner.BuildPlannedDays(tasks, meetings, 1, 7, now)

	return c.JSON(fiber.Map{
		"message": "Dashboard fetched successfully",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"planned_days":  plannedDays,
			"notifications": notifications,
			"unread_count":  unread,
		},
	})
}

// AdminDashboard returns the month calendar grid with the companion
// delayed/pending/completed lists and month navigation. Out-of-range month
// or year query parameters fall back to the current month.
func AdminDashboard(c *fiber.Ctx) error {
	now := time.Now()

	year, month := planner.NormalizeMonth(
		c.QueryInt("year", now.Year()),
		c.QueryInt("month", int(now.Month())),
		now,
	)

	tasks, err := queryTasks("SELECT " + taskColumns + " FROM tasks ORDER BY created_at DESC")
	if err != nil {
		logger.ErrorLogger.Error("Error fetching calendar tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching tasks",
			"success": false,
			"status":  500,
		})
	}

	notifications, err := fetchAllNotifications()
	if err != nil {
		logger.ErrorLogger.Error("Error fetching calendar notifications", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching notifications",
			"success": false,
			"status":  500,
		})
	}
	meetings := planner.MeetingsFromNotifications(notifications)

	grid := planner.MonthGrid(year, month, tasks, meetings, now)
	agenda := planner.BuildAgenda(tasks, now)
	prevYear, prevMonth, nextYear, nextMonth := planner.MonthNav(year, month)

	return c.JSON(fiber.Map{
		"message": "Admin dashboard fetched successfully",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"year":   year,
			"month":  int(month),
			"weeks":  grid,
			"agenda": agenda,
			"navigation": fiber.Map{
				"prev_year":  prevYear,
				"prev_month": int(prevMonth),
				"next_year":  nextYear,
				"next_month": int(nextMonth),
			},
		},
	})
}
