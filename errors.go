package things

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeAccessDenied       = "ACCESS_DENIED"
	TextCodeUnauthenticated    = "UNAUTHENTICATED"
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeIdentityNotFound   = "IDENTITY_NOT_FOUND"
	TextCodeThingNotFound      = "THING_NOT_FOUND"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodeInvalidPrincipal   = "INVALID_PRINCIPAL"
	TextCodeInvalidThing       = "INVALID_THING"
	TextCodeClaimsMappingError = "CLAIMS_MAPPING_ERROR"
)

// ErrAccessDenied is returned when the caller lacks a role required by a rule.
// It is never downgraded to a not found result.
var ErrAccessDenied = goerrors.New("access is denied", goerrors.CategoryAuthz).
	WithTextCode(TextCodeAccessDenied).
	WithCode(goerrors.CodeForbidden)

// ErrUnauthenticated is returned when a guarded operation runs without a caller
var ErrUnauthenticated = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidCredentials is returned for unknown usernames and wrong passwords alike
var ErrInvalidCredentials = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrThingNotFound is returned by update and delete operations that target a
// missing record. Lookups report absence as an empty result instead.
var ErrThingNotFound = goerrors.New("thing not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeThingNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrTokenExpired is returned when a bearer token is past its expiration
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned when a bearer token can not be parsed or verified
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = goerrors.New("unable to map claims", goerrors.CategoryAuth).
	WithTextCode(TextCodeClaimsMappingError).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password can not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed")
}

// IsAccessDenied reports whether err is, or wraps, ErrAccessDenied
func IsAccessDenied(err error) bool {
	return goerrors.Is(err, ErrAccessDenied)
}

// withMetadata clones a sentinel so per-call metadata never leaks into the
// shared value while errors.Is still matches the sentinel.
func withMetadata(base *goerrors.Error, metadata map[string]any) error {
	clone := base.Clone()
	if clone == nil {
		return base
	}
	clone.Source = base
	return clone.WithMetadata(metadata)
}
