package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	logger "github.com/sirupsen/logrus"

	"tradepulse/src/apperr"
	"tradepulse/src/auth"
	"tradepulse/src/model"
	"tradepulse/src/response"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxBodyBytes    = 1 << 20
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// currentUser writes a 401 and returns false when the request carries no user.
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := auth.GetUserFromContext(r.Context())
	if !ok || user == nil {
		logger.Warn("user not found in context")
		response.Fail(w, apperr.Unauthorized("authentication required"))
		return nil, false
	}
	return user, true
}

// decodeJSON reads a strict JSON body into dst and runs struct validation.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Wrap(apperr.CodeValidation, "invalid payload", err)
	}

	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Wrap(apperr.CodeValidation, "invalid payload", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}

	appErr := apperr.Validation("invalid payload")
	appErr.Details = strings.Join(msgs, "; ")
	return appErr
}

// pageParams reads page and pageSize. pageSize is capped at maxPageSize.
func pageParams(r *http.Request) (int, int, error) {
	page := 1
	if pageParam := r.URL.Query().Get("page"); pageParam != "" {
		parsedPage, err := strconv.Atoi(pageParam)
		if err != nil || parsedPage <= 0 {
			return 0, 0, apperr.Validation("invalid page")
		}
		page = parsedPage
	}

	pageSize := defaultPageSize
	if sizeParam := r.URL.Query().Get("pageSize"); sizeParam != "" {
		parsedSize, err := strconv.Atoi(sizeParam)
		if err != nil || parsedSize <= 0 {
			return 0, 0, apperr.Validation("invalid pageSize")
		}
		pageSize = parsedSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return page, pageSize, nil
}

func uintParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validationf("invalid %s", name)
	}
	return uint(id), nil
}
