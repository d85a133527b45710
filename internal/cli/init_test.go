package cli

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"spendly/internal/config"
	"spendly/internal/log"
)

func TestLoadConfig_RunsValidation(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "abc")

	if _, err := LoadConfig((*config.Config).Validate); err == nil {
		t.Fatal("expected validation error")
	}

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig(nil) error = %v", err)
	}
	if cfg.Port != "abc" {
		t.Errorf("Port = %q", cfg.Port)
	}
}

func TestShutdown(t *testing.T) {
	logger := log.New(log.Config{Output: io.Discard})

	called := false
	Shutdown(logger, time.Second, func(context.Context) error {
		called = true
		return errors.New("close failed")
	})
	if !called {
		t.Fatal("cleanup not called")
	}

	start := time.Now()
	Shutdown(logger, 20*time.Millisecond, func(ctx context.Context) error {
		time.Sleep(time.Second)
		return nil
	})
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Shutdown should give up at the timeout")
	}
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger("debug", log.ComponentApp)
	if logger.Component() != log.ComponentApp {
		t.Errorf("component = %q", logger.Component())
	}
}
