package config

import (
	"testing"
	"time"
	_ "time/tzdata"
)

func TestSessionSecret(t *testing.T) {
	t.Setenv("APP_SESSION_SECRET", "")
	a, b := Load(), Load()
	if len(a.SessionSecret) != 64 || a.SessionSecret == b.SessionSecret {
		t.Errorf("generated secrets = %q, %q", a.SessionSecret, b.SessionSecret)
	}

	t.Setenv("APP_SESSION_SECRET", "from-env")
	if got := Load().SessionSecret; got != "from-env" {
		t.Errorf("SessionSecret = %q", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_BACKEND_TIMEOUT", "abc")
	t.Setenv("APP_SESSION_HOURS", "0")
	t.Setenv("APP_TIMEZONE", "America/Sao_Paulo")
	cfg := Load()
	if cfg.BackendTimeout != 10*time.Second || cfg.SessionTTL != 72*time.Hour {
		t.Errorf("timeouts = %v, %v", cfg.BackendTimeout, cfg.SessionTTL)
	}
	if cfg.Location.String() != "America/Sao_Paulo" {
		t.Errorf("Location = %v", cfg.Location)
	}
}
