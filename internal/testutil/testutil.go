// Package testutil provides helpers for tests that need live backing
// services. Tests using these helpers skip when the service is unreachable
// unless TEST_REQUIRE_INFRA (or the per-service variant) demands it.
package testutil

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const connectTimeout = 2 * time.Second

// SetupTestDB opens a pgx pool against the test database and registers its
// cleanup. The test is skipped when the database is unreachable.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	hostPort := net.JoinHostPort(
		getEnvOrDefault("TEST_DB_HOST", "localhost"),
		getEnvOrDefault("TEST_DB_PORT", "5432"),
	)
	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		getEnvOrDefault("TEST_DB_USER", "draftforge"),
		getEnvOrDefault("TEST_DB_PASSWORD", "draftforge"),
		hostPort,
		getEnvOrDefault("TEST_DB_NAME", "draftforge_test"),
	)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		skipOrFatal(t, requireDB(), "test database not available: %v", err)
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		skipOrFatal(t, requireDB(), "test database not available at %s: %v", hostPort, err)
		return nil
	}

	t.Cleanup(pool.Close)
	return pool
}

// SetupTestRedis connects to the test Redis instance, flushes the selected
// database, and registers cleanup. The test is skipped when Redis is
// unreachable.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = getEnvOrDefault("REDIS_ADDR", "localhost:6379")
	}

	client := redis.NewClient(&redis.Options{
		Addr: addr,
		// Keep test data away from any local development instance.
		DB: 15,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			t.Logf("close redis client after ping error: %v", cerr)
		}
		skipOrFatal(t, requireRedis(), "redis not available at %s: %v", addr, err)
		return nil
	}

	client.FlushDB(ctx)
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Logf("close redis client: %v", err)
		}
	})
	return client
}

func skipOrFatal(t *testing.T, required bool, format string, args ...any) {
	t.Helper()
	if required {
		t.Fatalf(format, args...)
	}
	t.Skipf(format, args...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

func requireDB() bool    { return envBool("TEST_REQUIRE_DB") || envBool("TEST_REQUIRE_INFRA") }
func requireRedis() bool { return envBool("TEST_REQUIRE_REDIS") || envBool("TEST_REQUIRE_INFRA") }
