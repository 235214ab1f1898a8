package config

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"

	"planboard/internal/websocket"
	"planboard/pkg/storage"
)

var (
	// Global dependencies shared across the application.
	DB          *sql.DB
	SecretKey   = []byte("dev-secret")
	Validate    = validator.New()
	Ctx         = context.Background()
	RedisClient *redis.Client
	Uploads     *storage.Store
	Hub         *websocket.Hub
)
