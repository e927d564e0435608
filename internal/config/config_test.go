package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoad_MemoryDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("APP_PORT", "")
	t.Setenv("PORT", "")
	t.Setenv("CALL_STORE", "")
	t.Setenv("CALL_RETENTION_DAYS", "")
	t.Setenv("CALL_RETENTION_POLICY", "")
	t.Setenv("AUTH_REQUIRED", "")

	c, err := Load()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.App.Port != 3001 {
		t.Fatalf("expected default port 3001, got %d", c.App.Port)
	}
	if c.Store.Driver != StoreMemory {
		t.Fatalf("expected memory store, got %q", c.Store.Driver)
	}
	if c.Retention.Days != 730 || c.Retention.Policy != "keep" {
		t.Fatalf("unexpected retention defaults: %+v", c.Retention)
	}
	if c.RetentionWindow() != 730*24*time.Hour {
		t.Fatalf("unexpected retention window %s", c.RetentionWindow())
	}
	if c.OpenAI.ChatModel != "gpt-4o-mini" {
		t.Fatalf("unexpected chat model %q", c.OpenAI.ChatModel)
	}
}

func TestLoad_PortFallsBackToPORT(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "")
	t.Setenv("PORT", "8088")

	c, err := Load()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.App.Port != 8088 {
		t.Fatalf("expected 8088, got %d", c.App.Port)
	}
}

func TestLoad_RejectsMalformedNumbers(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "abc")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "APP_PORT") {
		t.Fatalf("expected APP_PORT parse error, got %v", err)
	}
}

func TestValidate_PostgresRequiresDB(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "local"},
		Store: StoreConfig{Driver: StorePostgres},
	}
	c.ApplyDefaults()
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected error for postgres store without DB settings")
	}
	if !strings.Contains(err.Error(), "DB_HOST") {
		t.Fatalf("expected DB_HOST in error, got %v", err)
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "production", Port: 8080},
		Store: StoreConfig{Driver: StorePostgres},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "aira"},
	}
	c.ApplyDefaults()
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestApplyDefaults_LocalDefaultsSSLMode(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "local", Port: 8080},
		Store: StoreConfig{Driver: StorePostgres},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "aira"},
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
}

func TestValidate_AuthRequiredNeedsSecret(t *testing.T) {
	c := Config{App: AppConfig{Env: "local"}, Auth: AuthConfig{Required: true}}
	c.ApplyDefaults()
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
}

func TestValidate_RejectsUnknownRetentionPolicy(t *testing.T) {
	c := Config{App: AppConfig{Env: "local"}, Retention: RetentionConfig{Policy: "archive"}}
	c.ApplyDefaults()
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for unknown retention policy")
	}
}
