// Package tests runs the Postgres adapters against a throwaway database.
package tests

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/docker/go-connections/nat"
	"github.com/eskrenkovic/migrate-go"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage    = "postgres:15-alpine"
	postgresUser     = "wager"
	postgresPassword = "wager"
	postgresDB       = "wager_rooms"

	SkipInfrastructureEnv = "SKIP_INFRASTRUCTURE"
)

var postgresPort = nat.Port("5432/tcp")

// SkipInfrastructure reports whether tests that need containers should skip.
func SkipInfrastructure() bool {
	return os.Getenv(SkipInfrastructureEnv) == "true"
}

type PostgresFixture struct {
	container testcontainers.Container

	DB          *sql.DB
	DatabaseURL string
}

// StartPostgres runs a Postgres container and applies the migrations found
// at migrationsPath.
func StartPostgres(ctx context.Context, migrationsPath string) (*PostgresFixture, error) {
	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{string(postgresPort)},
		Env: map[string]string{
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
			"POSTGRES_DB":       postgresDB,
		},
		// postgres restarts once after init, so the line shows up twice
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, err
	}

	fixture := &PostgresFixture{container: container}

	host, err := container.Host(ctx)
	if err != nil {
		_ = fixture.Stop(ctx)
		return nil, err
	}

	port, err := container.MappedPort(ctx, postgresPort)
	if err != nil {
		_ = fixture.Stop(ctx)
		return nil, err
	}

	fixture.DatabaseURL = fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser,
		postgresPassword,
		host,
		port.Port(),
		postgresDB,
	)

	db, err := sql.Open("postgres", fixture.DatabaseURL)
	if err != nil {
		_ = fixture.Stop(ctx)
		return nil, err
	}
	fixture.DB = db

	if err := db.PingContext(ctx); err != nil {
		_ = fixture.Stop(ctx)
		return nil, err
	}

	if err := migrate.Run(ctx, db, migrationsPath); err != nil {
		_ = fixture.Stop(ctx)
		return nil, err
	}

	return fixture, nil
}

func (f *PostgresFixture) Stop(ctx context.Context) error {
	if f.DB != nil {
		_ = f.DB.Close()
	}

	return f.container.Terminate(ctx)
}
