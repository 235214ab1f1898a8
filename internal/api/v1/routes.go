package v1

import (
	"github.com/gofiber/fiber/v2"

	"planboard/internal/api/v1/handlers"
	"planboard/internal/middleware"
)

func RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// Auth
	api.Post("/login", handlers.Login)
	api.Post("/signup", handlers.Signup)
	api.Post("/admin/login", handlers.AdminLogin)

	// User
	userRoutes := api.Group("/users", middleware.UseToken)
	userRoutes.Get("/", middleware.RequireAdmin, handlers.GetAllUsers)
	userRoutes.Get("/:id", handlers.GetUser)
	userRoutes.Put("/:id", handlers.UpdateUser)
	userRoutes.Delete("/:id", middleware.RequireAdmin, handlers.DeleteUser)

	// Register "shared" before ":id" so the pool listing is not parsed as an id.
	taskRoutes := api.Group("/tasks", middleware.UseToken)
	taskRoutes.Post("/", handlers.CreateTask)
	taskRoutes.Get("/", handlers.ListTasks)
	taskRoutes.Get("/shared", handlers.SharedTasks)
	taskRoutes.Get("/:id", handlers.GetTask)
	taskRoutes.Put("/:id", handlers.UpdateTask)
	taskRoutes.Post("/:id/complete", handlers.CompleteTask)
	taskRoutes.Post("/:id/take", handlers.TakeTask)
	taskRoutes.Post("/:id/finish", handlers.FinishTask)
	taskRoutes.Post("/:id/file", handlers.AttachTaskFile)

	// Notifications
	notifRoutes := api.Group("/notifications", middleware.UseToken)
	notifRoutes.Get("/", handlers.Inbox)
	notifRoutes.Post("/:id/read", handlers.MarkNotificationRead)

	// Dashboards
	api.Get("/dashboard", middleware.UseToken, handlers.UserDashboard)
	api.Get("/admin/dashboard", middleware.UseToken, middleware.RequireAdmin, handlers.AdminDashboard)

	// Admin bulk assignment
	api.Post("/admin/assignments", middleware.UseToken, middleware.RequireAdmin, handlers.BulkAssign)

	// Files
	api.Get("/files/:filename", middleware.UseToken, handlers.GetFile)
}
