package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gofiber/fiber/v2"
	identity "github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/middleware/tokenware"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Config is read from the environment. The defaults give a working
// single-binary setup backed by a local SQLite file.
type Config struct {
	Addr  string `env:"IDENTITY_ADDR" envDefault:":8080"`
	DSN   string `env:"IDENTITY_DSN" envDefault:"file:identity.db?cache=shared&_fk=1"`
	Debug bool   `env:"IDENTITY_DEBUG" envDefault:"false"`
}

func main() {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("parse config: %v", err)
	}

	db, err := openDatabase(cfg.DSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := identity.ApplyMigrations(ctx, db); err != nil {
		cancel()
		log.Fatalf("apply migrations: %v", err)
	}
	cancel()

	repo := identity.NewRepositoryManager(db)
	issuer := identity.NewTokenIssuer(repo)

	gate := tokenware.New(tokenware.Config{
		Resolver: issuer,
	})

	app := fiber.New(fiber.Config{
		AppName: "identity-server",
	})

	identity.RegisterIdentityRoutes(app, gate,
		identity.WithControllerRepository(repo),
		identity.WithControllerIssuer(issuer),
		identity.WithControllerDebug(cfg.Debug),
	)

	go func() {
		if err := app.Listen(cfg.Addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func openDatabase(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}
