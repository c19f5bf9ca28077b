// Package response writes every API result in one envelope shape.
package response

import (
	"encoding/json"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"tradepulse/src/apperr"
)

type ErrorBody struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
	Details string      `json:"details,omitempty"`
}

type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type Envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Error      *ErrorBody  `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// NewPagination derives the page count from a total row count.
func NewPagination(page, pageSize int, total int64) *Pagination {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: totalPages}
}

// StatusFor maps an error code onto an HTTP status.
func StatusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeUnauthorized:
		return http.StatusUnauthorized
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeDuplicate:
		return http.StatusConflict
	case apperr.CodeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// FromError normalizes any error into an ErrorBody. Errors outside the
// taxonomy become SERVER_ERROR with the original message kept in details.
func FromError(err error) ErrorBody {
	if appErr, ok := apperr.As(err); ok {
		return ErrorBody{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
	}
	return ErrorBody{
		Code:    apperr.CodeServer,
		Message: "Internal Server Error",
		Details: err.Error(),
	}
}

func OK(w http.ResponseWriter, data any) {
	Write(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(w http.ResponseWriter, data any) {
	Write(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

func OKPage(w http.ResponseWriter, data any, page *Pagination) {
	Write(w, http.StatusOK, Envelope{Success: true, Data: data, Pagination: page})
}

// Fail writes err using the status its code maps to.
func Fail(w http.ResponseWriter, err error) {
	body := FromError(err)
	status := StatusFor(body.Code)
	if status >= http.StatusInternalServerError {
		logger.WithError(err).Error("request failed")
	}
	Write(w, status, Envelope{Success: false, Error: &body})
}

// FailWith writes an error envelope with an explicit status.
func FailWith(w http.ResponseWriter, status int, code apperr.Code, message string) {
	Write(w, status, Envelope{Success: false, Error: &ErrorBody{Code: code, Message: message}})
}

func Write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logger.WithError(err).Error("failed to encode response envelope")
	}
}
