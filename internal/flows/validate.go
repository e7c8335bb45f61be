package flows

import (
	"errors"
	"strings"

	"github.com/MrEthical07/subAuth/jwt"
)

// ValidateFailureKind classifies access-token validation failures.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureMissing
	ValidateFailureExpired
	ValidateFailureInvalid
)

// ValidateResult returns either claims or a classified failure.
type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	Claims  *jwt.AccessClaims
}

// ValidateDeps captures access validation dependencies.
type ValidateDeps struct {
	ParseAccess func(string) (*jwt.AccessClaims, error)
}

// RunValidate verifies a bearer access token without any store lookup.
func RunValidate(tokenStr string, deps ValidateDeps) ValidateResult {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return ValidateResult{Failure: ValidateFailureMissing}
	}

	claims, err := deps.ParseAccess(tokenStr)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return ValidateResult{Failure: ValidateFailureExpired, Err: err}
		}
		return ValidateResult{Failure: ValidateFailureInvalid, Err: err}
	}

	return ValidateResult{Claims: claims}
}
