// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"log"
	"time"

	"github.com/Roulerrr/server-iot-smart-home-ver.test/internal/config"
	"github.com/Roulerrr/server-iot-smart-home-ver.test/internal/db"
	devicedomain "github.com/Roulerrr/server-iot-smart-home-ver.test/internal/device/domain"
	devicerepo "github.com/Roulerrr/server-iot-smart-home-ver.test/internal/device/repository"
	"github.com/Roulerrr/server-iot-smart-home-ver.test/internal/security"
	userdomain "github.com/Roulerrr/server-iot-smart-home-ver.test/internal/user/domain"
	userrepo "github.com/Roulerrr/server-iot-smart-home-ver.test/internal/user/repository"
)

const (
	devUserEmail   = "dev@example.com"
	devUsername    = "dev"
	devPassword    = "password123"
	devDeviceName  = "dev-greenhouse"
	devDeviceType  = "esp32"
	devDeviceToken = "dev-device-token-001"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := userrepo.NewPostgresRepository(pool)
	devices := devicerepo.NewPostgresRepository(pool)

	existing, err := users.GetByEmail(ctx, devUserEmail)
	if err != nil {
		log.Fatalf("seed: lookup dev user: %v", err)
	}
	if existing != nil {
		log.Printf("seed: dev user %s already exists (id %d); nothing to do", devUserEmail, existing.ID)
		return
	}

	hash, err := security.NewHasher(cfg.BcryptCost).Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("seed: hash password: %v", err)
	}
	u := &userdomain.User{Username: devUsername, Email: devUserEmail, PasswordHash: hash}
	if err := users.Create(ctx, u); err != nil {
		log.Fatalf("seed: create user: %v", err)
	}

	d := &devicedomain.Device{UserID: u.ID, Name: devDeviceName, Type: devDeviceType, Token: devDeviceToken}
	if err := devices.Create(ctx, d); err != nil {
		log.Fatalf("seed: create device: %v", err)
	}

	log.Printf("seed: created user %d (%s / %s) and device %d (token %s)",
		u.ID, devUserEmail, devPassword, d.ID, devDeviceToken)
}
