package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
}

// Error codes for different modules
const (
	// Success
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer  = 1000
	ErrInvalidParams   = 1001
	ErrNotFound        = 1002
	ErrTooManyRequests = 1003
	ErrBadRequest      = 1004
	ErrServiceUnavail  = 1005

	// Search errors (2000-2999)
	ErrSearchFailed     = 2000
	ErrIndexUnavailable = 2001
	ErrInvalidQuery     = 2002
	ErrInvalidPage      = 2003
	ErrInvalidCategory  = 2004

	// Cache errors (3000-3999)
	ErrCacheUnavailable = 3000
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	ErrInternalServer:  {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:   {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:        {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrTooManyRequests: {ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests"},
	ErrBadRequest:      {ErrBadRequest, http.StatusBadRequest, "Bad request"},
	ErrServiceUnavail:  {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable"},

	ErrSearchFailed:     {ErrSearchFailed, http.StatusInternalServerError, "Search request failed"},
	ErrIndexUnavailable: {ErrIndexUnavailable, http.StatusServiceUnavailable, "Search index unavailable"},
	ErrInvalidQuery:     {ErrInvalidQuery, http.StatusBadRequest, "Invalid search query"},
	ErrInvalidPage:      {ErrInvalidPage, http.StatusBadRequest, "Invalid page parameters"},
	ErrInvalidCategory:  {ErrInvalidCategory, http.StatusBadRequest, "Unknown category"},

	ErrCacheUnavailable: {ErrCacheUnavailable, http.StatusServiceUnavailable, "Cache unavailable"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsSuccess checks if the code represents success
func IsSuccess(code int) bool {
	return code == Success
}

// FormatError formats an error message with code
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
