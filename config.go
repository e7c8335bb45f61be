package subAuth

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/subAuth/jwt"
	"github.com/MrEthical07/subAuth/password"
)

// Config holds every engine setting. Obtain defaults from [DefaultConfig]
// or through [New], adjust, and pass to [Builder.WithConfig].
type Config struct {
	JWT      JWTConfig
	Session  SessionConfig
	Password PasswordConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Security SecurityConfig
	Store    StoreConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls access tokens.
type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	MaxFutureIAT  time.Duration
	KeyID         string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls refresh sessions.
type SessionConfig struct {
	RedisPrefix string
	RefreshTTL  time.Duration
	// LazySweep removes an identity's expired sessions after each refresh.
	LazySweep bool
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds argon2id cost parameters.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

// AuditConfig controls the asynchronous audit recorder.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process metrics.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig controls sign-in throttling.
type SecurityConfig struct {
	ProductionMode       bool
	EnableSignInThrottle bool
	EnableIPThrottle     bool
	MaxSignInAttempts    int
	SignInCooldown       time.Duration
}

// StoreConfig bounds backing store calls.
type StoreConfig struct {
	// OperationTimeout applies to sign-in, sign-up and refresh.
	OperationTimeout time.Duration
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration. A signing key must
// still be supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	pw := password.DefaultConfig()
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			SigningMethod: "hs256",
			Issuer:        "subauth",
			MaxFutureIAT:  10 * time.Minute,
		},
		Session: SessionConfig{
			RedisPrefix: "st",
			RefreshTTL:  7 * 24 * time.Hour,
			LazySweep:   true,
		},
		Password: PasswordConfig{
			Memory:         pw.Memory,
			Time:           pw.Time,
			Parallelism:    pw.Parallelism,
			SaltLength:     pw.SaltLength,
			KeyLength:      pw.KeyLength,
			UpgradeOnLogin: true,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
		Security: SecurityConfig{
			ProductionMode:       false,
			EnableSignInThrottle: true,
			EnableIPThrottle:     false,
			MaxSignInAttempts:    5,
			SignInCooldown:       15 * time.Minute,
		},
		Store: StoreConfig{
			OperationTimeout: 3 * time.Second,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (c *Config) jwtConfig() jwt.Config {
	return jwt.Config{
		AccessTTL:     c.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(c.JWT.SigningMethod),
		PrivateKey:    c.JWT.PrivateKey,
		PublicKey:     c.JWT.PublicKey,
		Issuer:        c.JWT.Issuer,
		Audience:      c.JWT.Audience,
		Leeway:        c.JWT.Leeway,
		MaxFutureIAT:  c.JWT.MaxFutureIAT,
		KeyID:         c.JWT.KeyID,
	}
}

func (c *Config) passwordConfig() password.Config {
	return password.Config{
		Memory:      c.Password.Memory,
		Time:        c.Password.Time,
		Parallelism: c.Password.Parallelism,
		SaltLength:  c.Password.SaltLength,
		KeyLength:   c.Password.KeyLength,
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks cfg for missing or contradictory settings.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.AccessTTL > time.Hour {
		return errors.New("JWT AccessTTL must be <= 1h")
	}
	if c.JWT.SigningMethod != "ed25519" && c.JWT.SigningMethod != "hs256" {
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.SigningMethod == "ed25519" && len(c.JWT.PublicKey) == 0 {
		return errors.New("ed25519 requires PublicKey")
	}
	if c.JWT.SigningMethod == "hs256" && len(c.JWT.PrivateKey) < 32 {
		return errors.New("hs256 requires a PrivateKey of at least 32 bytes")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}
	if c.JWT.Audience != "" && strings.TrimSpace(c.JWT.Audience) == "" {
		return errors.New("JWT Audience must not be blank")
	}
	if c.JWT.MaxFutureIAT < 0 || c.JWT.MaxFutureIAT > 24*time.Hour {
		return errors.New("JWT MaxFutureIAT must be between 0 and 24h")
	}

	// Session
	if c.Session.RefreshTTL < time.Minute {
		return errors.New("Session RefreshTTL must be >= 1m")
	}
	if c.Session.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("Session RefreshTTL must be longer than JWT AccessTTL")
	}
	if strings.ContainsAny(c.Session.RedisPrefix, " \t\n") {
		return errors.New("Session RedisPrefix must not contain whitespace")
	}

	// Password
	if err := password.ValidateConfig(c.passwordConfig()); err != nil {
		return err
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	// Security
	if c.Security.EnableSignInThrottle {
		if c.Security.MaxSignInAttempts <= 0 {
			return errors.New("Security MaxSignInAttempts must be > 0")
		}
		if c.Security.SignInCooldown <= 0 {
			return errors.New("Security SignInCooldown must be > 0")
		}
	}
	if c.Security.EnableIPThrottle && !c.Security.EnableSignInThrottle {
		return errors.New("Security EnableIPThrottle requires EnableSignInThrottle")
	}
	if c.Security.ProductionMode && !c.Security.EnableSignInThrottle {
		return errors.New("ProductionMode requires EnableSignInThrottle")
	}
	if c.Security.ProductionMode && c.Password.Memory < 64*1024 {
		return errors.New("ProductionMode requires Password Memory >= 64MB")
	}

	// Store
	if c.Store.OperationTimeout <= 0 {
		return errors.New("Store OperationTimeout must be > 0")
	}

	return nil
}
