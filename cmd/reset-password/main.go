package main

import (
	"context"
	"flag"
	"log"

	"kasa-pos/internal/repository"
	"kasa-pos/pkg/config"
	"kasa-pos/pkg/database"
	"kasa-pos/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Resets a user's password and kills their open sessions.
//
//	go run ./cmd/reset-password -user admin -password 123456
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}
	cfg := config.LoadEnv()

	username := flag.String("user", cfg.JWT.AdminUsername, "username to reset")
	password := flag.String("password", cfg.JWT.AdminPassword, "new password")
	flag.Parse()

	zlog := logger.New(logger.Config{Encoding: "console", Level: cfg.Logger.Level})
	defer zlog.Sync()

	db, err := database.ConnectDB(cfg.Postgres, zlog)
	if err != nil {
		zlog.Fatal("Database unavailable", zap.Error(err))
	}

	ctx := context.Background()
	users := repository.NewUserRepo(db)

	user, err := users.FindByUsername(ctx, *username)
	if err != nil {
		zlog.Fatal("User not found", zap.String("username", *username), zap.Error(err))
	}
	if len(*password) < 6 {
		zlog.Fatal("Password must be at least 6 characters")
	}
	if err := user.SetPassword(*password); err != nil {
		zlog.Fatal("Failed to hash password", zap.Error(err))
	}
	if err := users.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		zlog.Fatal("Failed to update password", zap.Error(err))
	}
	if err := users.UpdateTokenVersion(ctx, user.ID, uuid.New().String()); err != nil {
		zlog.Fatal("Failed to revoke sessions", zap.Error(err))
	}

	zlog.Info("Password reset", zap.String("username", user.Username))
}
