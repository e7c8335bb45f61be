package subAuth

import (
	"fmt"
	"strings"
	"time"
)

// LintSeverity ranks a configuration warning.
type LintSeverity int

const (
	// LintInfo is a note about a deliberate but unusual choice.
	LintInfo LintSeverity = iota
	// LintWarn marks a setting that weakens security or operability.
	LintWarn
	// LintHigh marks a setting that contradicts a documented guarantee.
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("LintSeverity(%d)", int(s))
	}
}

// LintWarning is one finding of [Config.Lint].
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the list of findings, in check order.
type LintResult []LintWarning

// Codes returns the warning codes.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns the warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError joins every warning at or above min into one error, or returns nil.
func (r LintResult) AsError(min LintSeverity) error {
	hits := r.BySeverity(min)
	if len(hits) == 0 {
		return nil
	}
	parts := make([]string, 0, len(hits))
	for _, w := range hits {
		parts = append(parts, fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message))
	}
	return fmt.Errorf("config lint: %s", strings.Join(parts, "; "))
}

// Lint reports settings that pass Validate but are risky. It never fails.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, format string, args ...any) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	if c.JWT.Leeway > time.Minute {
		add("leeway_large", LintWarn, "JWT leeway %s exceeds 1m", c.JWT.Leeway)
	}
	if c.JWT.AccessTTL > 15*time.Minute {
		add("access_ttl_long", LintWarn, "access tokens live %s and cannot be revoked early", c.JWT.AccessTTL)
	}
	if c.Session.RefreshTTL > 14*24*time.Hour {
		add("refresh_ttl_long", LintWarn, "refresh tokens live %s", c.Session.RefreshTTL)
	}
	if c.JWT.SigningMethod == "hs256" {
		add("signing_hs256", LintInfo, "hs256 shares the signing secret with every verifier")
	}
	if !c.Security.EnableSignInThrottle {
		add("rate_limits_disabled", LintHigh, "sign-in throttling is off; passwords can be guessed without limit")
	} else if !c.Security.EnableIPThrottle {
		add("ip_throttle_disabled", LintInfo, "sign-in throttling is per email only")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintWarn, "privileged actions are not recorded")
	} else if !c.Audit.DropIfFull {
		add("audit_blocking", LintHigh, "a full audit buffer blocks the action that records it")
	}
	if c.Password.Memory < 64*1024 {
		add("argon2_memory_low", LintWarn, "argon2 memory %d KB is below 64 MB", c.Password.Memory)
	}
	if !c.Session.LazySweep {
		add("lazy_sweep_disabled", LintInfo, "expired sessions are removed only by the sweep worker")
	}

	return ws
}
