package subAuth

import (
	"testing"
	"time"
)

func TestLint_DefaultConfigHasNoHighWarnings(t *testing.T) {
	cfg := defaultConfig()
	codes := cfg.Lint().Codes()

	if containsCode(codes, "rate_limits_disabled") {
		t.Error("default config should not have rate_limits_disabled")
	}
	if containsCode(codes, "audit_blocking") {
		t.Error("default config should drop audit entries rather than block")
	}
	if !containsCode(codes, "ip_throttle_disabled") {
		t.Error("expected ip_throttle_disabled note for default config")
	}
}

func TestLint_LargeLeeway(t *testing.T) {
	cfg := defaultConfig()
	cfg.JWT.Leeway = 90 * time.Second
	if !containsCode(cfg.Lint().Codes(), "leeway_large") {
		t.Error("expected leeway_large warning")
	}
}

func TestLint_LongAccessTTL(t *testing.T) {
	cfg := defaultConfig()
	cfg.JWT.AccessTTL = 30 * time.Minute
	if !containsCode(cfg.Lint().Codes(), "access_ttl_long") {
		t.Error("expected access_ttl_long warning")
	}
}

func TestLint_LongRefreshTTL(t *testing.T) {
	cfg := defaultConfig()
	cfg.Session.RefreshTTL = 30 * 24 * time.Hour
	if !containsCode(cfg.Lint().Codes(), "refresh_ttl_long") {
		t.Error("expected refresh_ttl_long warning")
	}
}

func TestLint_RateLimitsDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.EnableSignInThrottle = false
	ws := cfg.Lint()
	if !containsCode(ws.Codes(), "rate_limits_disabled") {
		t.Fatal("expected rate_limits_disabled warning")
	}
	for _, w := range ws {
		if w.Code == "rate_limits_disabled" && w.Severity != LintHigh {
			t.Errorf("rate_limits_disabled should be HIGH, got %s", w.Severity)
		}
	}
}

func TestLint_AuditDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.Audit.Enabled = false
	if !containsCode(cfg.Lint().Codes(), "audit_disabled") {
		t.Error("expected audit_disabled warning when audit is off")
	}
}

func TestLint_AuditBlocking(t *testing.T) {
	cfg := defaultConfig()
	cfg.Audit.DropIfFull = false
	if !containsCode(cfg.Lint().Codes(), "audit_blocking") {
		t.Error("expected audit_blocking warning")
	}
}

func TestLint_HS256Note(t *testing.T) {
	cfg := defaultConfig()
	cfg.JWT.SigningMethod = "hs256"
	if !containsCode(cfg.Lint().Codes(), "signing_hs256") {
		t.Error("expected signing_hs256 note")
	}
}

func TestLint_Argon2MemoryLow(t *testing.T) {
	cfg := defaultConfig()
	cfg.Password.Memory = 16 * 1024
	if !containsCode(cfg.Lint().Codes(), "argon2_memory_low") {
		t.Error("expected argon2_memory_low warning")
	}

	cfg.Password.Memory = 64 * 1024
	if containsCode(cfg.Lint().Codes(), "argon2_memory_low") {
		t.Error("should not warn when memory == 64 MB")
	}
}

func TestLint_AsError(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Lint().AsError(LintHigh); err != nil {
		t.Errorf("default config should not fail AsError(LintHigh): %v", err)
	}

	cfg.Security.EnableSignInThrottle = false
	if err := cfg.Lint().AsError(LintHigh); err == nil {
		t.Error("expected AsError(LintHigh) to return error")
	}
}

func TestLint_BySeverity(t *testing.T) {
	cfg := defaultConfig()
	cfg.Audit.DropIfFull = false
	ws := cfg.Lint()

	high := ws.BySeverity(LintHigh)
	if len(high) == 0 {
		t.Error("expected at least one HIGH severity warning")
	}
	for _, w := range high {
		if w.Severity < LintHigh {
			t.Errorf("BySeverity(LintHigh) returned warning with severity %s", w.Severity)
		}
	}
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
