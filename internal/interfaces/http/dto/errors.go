package dto

import "net/http"

// General error codes
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNotFound     = "NOT_FOUND"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Validation failures are 400, missing resources 404, duplicates and
// concurrency 409, and business rule violations 422.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,

	"NOT_FOUND":            http.StatusNotFound,
	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	"DUPLICATE_ACCOUNT_CODE": http.StatusConflict,
	"ACCOUNT_IN_USE":         http.StatusUnprocessableEntity,
	"INVOICE_IN_USE":         http.StatusUnprocessableEntity,
	"INVALID_STATE":          http.StatusUnprocessableEntity,

	"INSUFFICIENT_ENTRIES": http.StatusUnprocessableEntity,
	"UNBALANCED_ENTRIES":   http.StatusUnprocessableEntity,
	"AMBIGUOUS_ENTRY_SIDE": http.StatusUnprocessableEntity,
	"EMPTY_ENTRY":          http.StatusUnprocessableEntity,
	"EMPTY_INVOICE":        http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status for a domain error code.
// Unknown codes default to 400: the remaining domain codes all flag
// invalid input.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusBadRequest
}
