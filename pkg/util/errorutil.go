package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// Error codes surfaced in API responses.
const (
	CodeInvalidToken      = "INVALID_TOKEN"
	CodeBadCredentials    = "BAD_CREDENTIALS"
	CodePrincipalNotFound = "PRINCIPAL_NOT_FOUND"
	CodeAccountDisabled   = "ACCOUNT_DISABLED"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeValidation        = "VALIDATION_FAILED"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeInternal          = "INTERNAL_ERROR"
)

// Sentinels for errors.Is checks. They match any DomainError with the same code.
var (
	ErrInvalidToken      = &DomainError{Code: CodeInvalidToken, Message: "invalid or expired token", HTTPStatus: http.StatusUnauthorized}
	ErrBadCredentials    = &DomainError{Code: CodeBadCredentials, Message: "invalid username or password", HTTPStatus: http.StatusUnauthorized}
	ErrPrincipalNotFound = &DomainError{Code: CodePrincipalNotFound, Message: "principal not found", HTTPStatus: http.StatusUnauthorized}
	ErrAccountDisabled   = &DomainError{Code: CodeAccountDisabled, Message: "account disabled", HTTPStatus: http.StatusUnauthorized}
	ErrUnauthenticated   = &DomainError{Code: CodeUnauthorized, Message: "authentication required", HTTPStatus: http.StatusUnauthorized}
	ErrForbidden         = &DomainError{Code: CodeForbidden, Message: "access denied", HTTPStatus: http.StatusForbidden}
	ErrNotFound          = &DomainError{Code: CodeNotFound, Message: "resource not found", HTTPStatus: http.StatusNotFound}
	ErrConflict          = &DomainError{Code: CodeConflict, Message: "resource conflict", HTTPStatus: http.StatusConflict}
	ErrValidation        = &DomainError{Code: CodeValidation, Message: "validation failed", HTTPStatus: http.StatusBadRequest}
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewInvalidToken wraps the cause of a token rejection. The cause never reaches the client.
func NewInvalidToken(err error) error {
	return &DomainError{
		Code:       CodeInvalidToken,
		Message:    ErrInvalidToken.Message,
		HTTPStatus: http.StatusUnauthorized,
		Err:        err,
	}
}

func NewBadCredentials() error {
	return NewDomainError(CodeBadCredentials, ErrBadCredentials.Message, http.StatusUnauthorized, nil)
}

func NewPrincipalNotFound(identifier string) error {
	return &DomainError{
		Code:       CodePrincipalNotFound,
		Message:    ErrPrincipalNotFound.Message,
		HTTPStatus: http.StatusUnauthorized,
		Err:        fmt.Errorf("no principal for %q", identifier),
	}
}

func NewAccountDisabled(status string) error {
	return NewDomainError(CodeAccountDisabled, ErrAccountDisabled.Message, http.StatusUnauthorized, map[string]any{"status": status})
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return NewDomainError(codeForStatus(fiberErr.Code), fiberErr.Message, fiberErr.Code, nil)
	}
	return NewInternalError(err).(*DomainError)
}

func MapError(err error) error {
	return ToDomainError(err)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	}
	if status >= http.StatusInternalServerError {
		return CodeInternal
	}
	return "REQUEST_FAILED"
}
