package subAuth

import "time"

// SecurityReport summarizes the security-relevant configuration of a built
// Engine. Servers log it once at startup.
type SecurityReport struct {
	ProductionMode     bool
	SigningAlgorithm   string
	AccessTTL          time.Duration
	RefreshTTL         time.Duration
	Argon2             PasswordConfigReport
	LazySweep          bool
	RateLimitingActive bool
	IPThrottleActive   bool
	AuditEnabled       bool
	AuditDropIfFull    bool
	OperationTimeout   time.Duration
}

// PasswordConfigReport is the argon2id cost in effect.
type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	rateLimiting := e.rateLimiter != nil &&
		e.config.Security.MaxSignInAttempts > 0 &&
		e.config.Security.SignInCooldown > 0

	return SecurityReport{
		ProductionMode:   e.config.Security.ProductionMode,
		SigningAlgorithm: e.config.JWT.SigningMethod,
		AccessTTL:        e.config.JWT.AccessTTL,
		RefreshTTL:       e.config.Session.RefreshTTL,
		Argon2: PasswordConfigReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		},
		LazySweep:          e.config.Session.LazySweep,
		RateLimitingActive: rateLimiting,
		IPThrottleActive:   rateLimiting && e.config.Security.EnableIPThrottle,
		AuditEnabled:       e.recorder != nil,
		AuditDropIfFull:    e.config.Audit.DropIfFull,
		OperationTimeout:   e.config.Store.OperationTimeout,
	}
}
