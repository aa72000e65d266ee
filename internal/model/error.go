package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeVoucherNotFound  = "VOUCHER_NOT_FOUND"
	ErrCodeCardNotFound     = "CARD_NOT_FOUND"
	ErrCodeCardNotActive    = "CARD_NOT_ACTIVE"
	ErrCodeCardExpired      = "CARD_EXPIRED"
	ErrCodeDataIntegrity    = "DATA_INTEGRITY"
	ErrCodeUnauthorised     = "UNAUTHORIZED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// DomainError is a business-rule failure carrying a stable code for API
// responses. CardStatus is set only for CARD_NOT_ACTIVE errors so the caller
// can render whether the card was already used or expired.
type DomainError struct {
	Code       string
	Message    string
	CardStatus string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewCardNotActiveError creates a CARD_NOT_ACTIVE error carrying the card's
// current status.
func NewCardNotActiveError(status string) *DomainError {
	return &DomainError{
		Code:       ErrCodeCardNotActive,
		Message:    fmt.Sprintf("Card is %s", status),
		CardStatus: status,
	}
}

// NewValidationError creates a VALIDATION_FAILED error with the given detail.
func NewValidationError(message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeValidationFailed,
		Message: message,
	}
}

// Common domain errors
var (
	ErrVoucherNotFound = NewDomainError(ErrCodeVoucherNotFound, "Voucher not found")
	ErrCardNotFound    = NewDomainError(ErrCodeCardNotFound, "Card not found")
	ErrCardExpired     = NewDomainError(ErrCodeCardExpired, "Card expired")
	ErrDuplicateCard   = NewDomainError(ErrCodeDataIntegrity, "Card value matches more than one card")
)
