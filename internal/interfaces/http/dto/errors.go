package dto

import "net/http"

// Transport-level error codes
// Format: ERR_<CATEGORY>
const (
	ErrCodeInternal           = "ERR_INTERNAL"
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeBadRequest         = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON        = "ERR_INVALID_JSON"
	ErrCodeNotFound           = "ERR_NOT_FOUND"
	ErrCodeRateLimited        = "ERR_RATE_LIMITED"
	ErrCodeRequestTooLarge    = "ERR_REQUEST_TOO_LARGE"
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"
	ErrCodeMaxConnections     = "ERR_MAX_CONNECTIONS_REACHED"
)

// Domain error codes surfaced unchanged to clients
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeInvalidState      = "INVALID_STATE"
	CodeOrderNotFound     = "ORDER_NOT_FOUND"
	CodeInvalidQuantity   = "INVALID_QUANTITY"
	CodeInvalidProduct    = "INVALID_PRODUCT"
	CodeInvalidStatus     = "INVALID_STATUS"
	CodeInvalidOrderID    = "INVALID_ORDER_ID"
	CodeStatusTransition  = "INVALID_STATUS_TRANSITION"
	CodeDuplicateOrder    = "DUPLICATE_ORDER"
	CodeSyncFailed        = "SYNC_FAILED"
	CodeGroupActionFailed = "GROUP_ACTION_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeInvalidJSON:        http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeRateLimited:        http.StatusTooManyRequests,
	ErrCodeRequestTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeMaxConnections:     http.StatusServiceUnavailable,

	CodeNotFound:          http.StatusNotFound,
	CodeInvalidInput:      http.StatusBadRequest,
	CodeInvalidState:      http.StatusUnprocessableEntity,
	CodeOrderNotFound:     http.StatusNotFound,
	CodeInvalidQuantity:   http.StatusBadRequest,
	CodeInvalidProduct:    http.StatusBadRequest,
	CodeInvalidStatus:     http.StatusBadRequest,
	CodeInvalidOrderID:    http.StatusBadRequest,
	CodeStatusTransition:  http.StatusUnprocessableEntity,
	CodeDuplicateOrder:    http.StatusConflict,
	CodeSyncFailed:        http.StatusBadGateway,
	CodeGroupActionFailed: http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for a given error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
