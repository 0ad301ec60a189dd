package blog

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeCredentialMismatch  = "CREDENTIAL_MISMATCH"
	TextCodeCredentialExpired   = "CREDENTIAL_EXPIRED"
	TextCodeCredentialTampered  = "CREDENTIAL_TAMPERED"
	TextCodeCredentialMalformed = "CREDENTIAL_MALFORMED"
	TextCodeMissingCredential   = "MISSING_CREDENTIAL"
	TextCodeIdentityNotFound    = "IDENTITY_NOT_FOUND"
	TextCodeCorruptHash         = "CORRUPT_PASSWORD_HASH"
)

// ErrMismatchedHashAndPassword is returned when a username/password pair does
// not verify. Unknown usernames map to the same error so callers cannot probe
// which accounts exist.
var ErrMismatchedHashAndPassword = goerrors.New("credentials do not match", goerrors.CategoryAuth).
	WithTextCode(TextCodeCredentialMismatch).
	WithCode(goerrors.CodeUnauthorized)

// ErrCorruptPasswordHash is returned when a stored hash cannot be parsed. This
// is a data-integrity fault, never a normal failed login.
var ErrCorruptPasswordHash = goerrors.New("stored password hash is unreadable", goerrors.CategoryInternal).
	WithTextCode(TextCodeCorruptHash)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrCredentialExpired covers both a token past its expiry and an API key that
// is absent or expired; the two are observably identical to the presenter.
var ErrCredentialExpired = goerrors.New("credential is invalid or expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeCredentialExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrCredentialTampered is returned when a token signature does not verify
var ErrCredentialTampered = goerrors.New("credential signature is invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeCredentialTampered).
	WithCode(goerrors.CodeUnauthorized)

// ErrCredentialMalformed is returned when claims cannot be decoded
var ErrCredentialMalformed = goerrors.New("credential is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeCredentialMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrMissingCredential is returned when no credential was presented at all
var ErrMissingCredential = goerrors.New("missing credential", goerrors.CategoryAuth).
	WithTextCode(TextCodeMissingCredential).
	WithCode(goerrors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities,
// including identities deleted after their credential was issued.
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryAuth).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidCredentialFormat rejects malformed login input before any lookup
var ErrInvalidCredentialFormat = goerrors.New("invalid credential format", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest)

// IsAuthRejection reports whether err is one of the rejection reasons the
// resolver produces. Everything that satisfies it collapses to the same
// unauthorized signal at the HTTP boundary.
func IsAuthRejection(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryAuth
}

// IsCredentialExpiredError will check for expired credentials
func IsCredentialExpiredError(err error) bool {
	return hasTextCode(err, TextCodeCredentialExpired)
}

// IsMalformedError will check for undecodable credentials
func IsMalformedError(err error) bool {
	return hasTextCode(err, TextCodeCredentialMalformed)
}

// IsCorruptHashError will check for stored hashes that could not be parsed
func IsCorruptHashError(err error) bool {
	return hasTextCode(err, TextCodeCorruptHash)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}
