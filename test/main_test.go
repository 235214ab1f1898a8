package test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"golang.org/x/crypto/bcrypt"

	"planboard/internal/api/v1/handlers"
	"planboard/internal/config"
	"planboard/internal/middleware"
	"planboard/internal/repository"
	"planboard/pkg/logger"
	"planboard/pkg/storage"
)

// backendReady is false when Docker is unavailable; every test then skips.
var backendReady bool

func TestMain(m *testing.M) {
	os.Setenv("GO_ENV", "test")
	logger.InitLoggers()
	defer logger.SyncLoggers()

	code := run(m)
	os.Exit(code)
}

func run(m *testing.M) int {
	pool, err := dockertest.NewPool("")
	if err == nil {
		err = pool.Client.Ping()
	}
	if err != nil {
		log.Printf("Docker not available, skipping integration tests: %v", err)
		return m.Run()
	}
	pool.MaxWait = 2 * time.Minute

	pg, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15-alpine",
		Env: []string{
			"POSTGRES_USER=planboard",
			"POSTGRES_PASSWORD=planboard",
			"POSTGRES_DB=planboard_test",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Printf("Could not start postgres container: %v", err)
		return m.Run()
	}
	defer pool.Purge(pg)

	rd, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Printf("Could not start redis container: %v", err)
		return m.Run()
	}
	defer pool.Purge(rd)

	dsn := fmt.Sprintf("host=localhost port=%s user=planboard password=planboard dbname=planboard_test sslmode=disable",
		pg.GetPort("5432/tcp"))
	if err := pool.Retry(func() error {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return err
		}
		config.DB = db
		return nil
	}); err != nil {
		log.Printf("Could not connect to postgres: %v", err)
		return m.Run()
	}
	defer config.DB.Close()

	config.RedisClient = redis.NewClient(&redis.Options{
		Addr: "localhost:" + rd.GetPort("6379/tcp"),
	})
	if err := pool.Retry(func() error {
		return config.RedisClient.Ping(config.Ctx).Err()
	}); err != nil {
		log.Printf("Could not connect to redis: %v", err)
		return m.Run()
	}
	defer config.RedisClient.Close()

	uploadDir, err := os.MkdirTemp("", "planboard-uploads-*")
	if err != nil {
		log.Printf("Could not create upload dir: %v", err)
		return m.Run()
	}
	defer os.RemoveAll(uploadDir)
	legacyDir, err := os.MkdirTemp("", "planboard-legacy-*")
	if err != nil {
		log.Printf("Could not create legacy dir: %v", err)
		return m.Run()
	}
	defer os.RemoveAll(legacyDir)
	config.Uploads = storage.New(uploadDir, legacyDir)

	repository.CreateTableIfNotExists(config.DB)
	backendReady = true

	code := m.Run()
	repository.DeleteAllTable(config.DB)
	return code
}

func requireBackend(t *testing.T) {
	t.Helper()
	if !backendReady {
		t.Skip("Docker backends not available")
	}
}

// CreateTestApp wires the routes under test, the same way the production
// router does but without CORS or the rate limiter.
func CreateTestApp() *fiber.App {
	app := fiber.New()
	app.Use(middleware.ErrorHandler())

	app.Post("/signup", handlers.Signup)
	app.Post("/login", handlers.Login)
	app.Post("/admin/login", handlers.AdminLogin)

	userRoutes := app.Group("/users", middleware.UseToken)
	userRoutes.Get("/", middleware.RequireAdmin, handlers.GetAllUsers)
	userRoutes.Get("/:id", handlers.GetUser)
	userRoutes.Put("/:id", handlers.UpdateUser)
	userRoutes.Delete("/:id", middleware.RequireAdmin, handlers.DeleteUser)

	taskRoutes := app.Group("/tasks", middleware.UseToken)
	taskRoutes.Post("/", handlers.CreateTask)
	taskRoutes.Get("/", handlers.ListTasks)
	taskRoutes.Get("/shared", handlers.SharedTasks)
	taskRoutes.Get("/:id", handlers.GetTask)
	taskRoutes.Put("/:id", handlers.UpdateTask)
	taskRoutes.Post("/:id/complete", handlers.CompleteTask)
	taskRoutes.Post("/:id/take", handlers.TakeTask)
	taskRoutes.Post("/:id/finish", handlers.FinishTask)
	taskRoutes.Post("/:id/file", handlers.AttachTaskFile)

	notifRoutes := app.Group("/notifications", middleware.UseToken)
	notifRoutes.Get("/", handlers.Inbox)
	notifRoutes.Post("/:id/read", handlers.MarkNotificationRead)

	app.Get("/dashboard", middleware.UseToken, handlers.UserDashboard)
	app.Get("/admin/dashboard", middleware.UseToken, middleware.RequireAdmin, handlers.AdminDashboard)
	app.Post("/admin/assignments", middleware.UseToken, middleware.RequireAdmin, handlers.BulkAssign)

	app.Get("/files/:filename", middleware.UseToken, handlers.GetFile)

	return app
}

func postJSON(t *testing.T, app *fiber.App, path, token string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Error marshaling body: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	return resp
}

func putJSON(t *testing.T, app *fiber.App, path, token string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Error marshaling body: %v", err)
	}
	req := httptest.NewRequest("PUT", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	return resp
}

func getJSON(t *testing.T, app *fiber.App, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Error decoding response: %v", err)
	}
	return result
}

// CreateTestUser signs up and logs in a fresh user, returning its token and id.
func CreateTestUser(t *testing.T, app *fiber.App) (string, int) {
	t.Helper()
	email := fmt.Sprintf("user_%d@example.com", time.Now().UnixNano())

	resp := postJSON(t, app, "/signup", "", map[string]string{
		"email":     email,
		"firstname": "Tester",
		"password1": "password1",
		"password2": "password1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201 on signup, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, app, "/login", "", map[string]string{
		"email":    email,
		"password": "password1",
	})
	result := decodeBody(t, resp)
	data, ok := result["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected data in login response, got %v", result)
	}
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatal("Expected valid token")
	}
	return token, int(data["user_id"].(float64))
}

// CreateTestAdmin inserts an administrator directly and logs it in through
// the admin login.
func CreateTestAdmin(t *testing.T, app *fiber.App) (string, int) {
	t.Helper()
	email := fmt.Sprintf("admin_%d@example.com", time.Now().UnixNano())
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("adminpass"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("Error hashing admin password: %v", err)
	}
	var adminID int
	err = config.DB.QueryRow(
		"INSERT INTO users (email, password, firstname, is_admin, role) VALUES ($1, $2, $3, TRUE, 'admin') RETURNING id",
		email, string(hashedPassword), "Admin",
	).Scan(&adminID)
	if err != nil {
		t.Fatalf("Error inserting admin user: %v", err)
	}

	resp := postJSON(t, app, "/admin/login", "", map[string]string{
		"email":    email,
		"password": "adminpass",
	})
	result := decodeBody(t, resp)
	data, ok := result["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected data in admin login response, got %v", result)
	}
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatal("Expected valid admin token")
	}
	return token, adminID
}
