package config

import (
	"fmt"
	"strings"
)

// DBConfig contains PostgreSQL configuration for the job archive.
// All variables share the DB_ prefix.
type DBConfig struct {
	// Enabled turns the PostgreSQL job archive on.
	Enabled  bool   `env:"ENABLED"  envDefault:"false"`
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"draftforge"`
	Password string `env:"PASSWORD" envDefault:"draftforge"`
	Name     string `env:"NAME"     envDefault:"draftforge"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically
	// applies the archive schema during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// URL builds a pgx-compatible connection string.
func (d *DBConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// RedisConfig contains Redis configuration for terminal job snapshots.
// All variables share the REDIS_ prefix.
type RedisConfig struct {
	// Enabled turns the Redis snapshot mirror on.
	Enabled  bool   `env:"ENABLED"  envDefault:"false"`
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// Sanitize normalises Redis configuration values.
func (r *RedisConfig) Sanitize() {
	r.Addr = strings.TrimSpace(r.Addr)
	if r.Addr == "" {
		r.Enabled = false
	}
}
