// Package testutils provides common testing utilities and infrastructure setup
package testutils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alchemorsel/recipebook/internal/infrastructure/persistence/migrations"
	"github.com/alchemorsel/recipebook/internal/infrastructure/persistence/sqlite"
	"github.com/docker/go-connections/nat"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB returns a migrated in-memory database private to the test
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := sqlite.SetupDatabase("", nil)
	require.NoError(t, err, "Failed to set up sqlite database")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// TestDatabase provides a test database instance with cleanup
type TestDatabase struct {
	Container testcontainers.Container
	GormDB    *gorm.DB
	DSN       string
	Host      string
	Port      int
	Config    DatabaseConfig
}

// DatabaseConfig holds test database configuration
type DatabaseConfig struct {
	Image    string
	Database string
	Username string
	Password string
	Port     string
}

// DefaultDatabaseConfig returns the default test database configuration
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Image:    "postgres:15-alpine",
		Database: "recipebook_test",
		Username: "test_user",
		Password: "test_password",
		Port:     "5432",
	}
}

// SetupTestDatabase starts PostgreSQL in a container and applies the SQL migrations
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	cfg := DefaultDatabaseConfig()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        cfg.Image,
				ExposedPorts: []string{cfg.Port + "/tcp"},
				Env: map[string]string{
					"POSTGRES_DB":       cfg.Database,
					"POSTGRES_USER":     cfg.Username,
					"POSTGRES_PASSWORD": cfg.Password,
				},
				WaitingFor: wait.ForAll(
					wait.ForLog("database system is ready to accept connections").
						WithOccurrence(2).
						WithStartupTimeout(60*time.Second),
					wait.ForSQL(nat.Port(cfg.Port+"/tcp"), "pgx", func(host string, port nat.Port) string {
						return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
							cfg.Username, cfg.Password, host, port.Port(), cfg.Database)
					}),
				),
				Tmpfs: map[string]string{
					"/var/lib/postgresql/data": "rw,noexec,nosuid,size=512m",
				},
			},
			Started: true,
		})
	require.NoError(t, err, "Failed to start postgres container")
	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, nat.Port(cfg.Port))
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Username, cfg.Password, host, port.Port(), cfg.Database)

	migrator, err := migrations.Open(dsn, cfg.Database, zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, migrator.Up(), "Failed to run migrations")
	require.NoError(t, migrator.Close())

	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to create GORM connection")
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return &TestDatabase{
		Container: container,
		GormDB:    gormDB,
		DSN:       dsn,
		Host:      host,
		Port:      port.Int(),
		Config:    cfg,
	}
}

// Truncate empties every catalog table and resets identities
func (td *TestDatabase) Truncate(t *testing.T) {
	t.Helper()
	err := td.GormDB.Exec("TRUNCATE recipe_ingredients, ingredients, recipes RESTART IDENTITY CASCADE").Error
	require.NoError(t, err, "Failed to truncate tables")
}

// SetupTestRedis starts Redis in a container and returns a connected client
func SetupTestRedis(t *testing.T) redis.UniversalClient {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
			},
			Started: true,
		})
	require.NoError(t, err, "Failed to start redis container")
	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	require.NoError(t, client.Ping(ctx).Err(), "Failed to ping redis")
	t.Cleanup(func() {
		client.Close()
	})
	return client
}
