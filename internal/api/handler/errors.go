package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/logan/usecasehub/internal/account"
	"github.com/logan/usecasehub/internal/api/middleware"
	"github.com/logan/usecasehub/internal/api/response"
	"github.com/logan/usecasehub/internal/chat"
	"github.com/logan/usecasehub/internal/restclient"
	"github.com/logan/usecasehub/internal/service"
	"github.com/logan/usecasehub/internal/usecase"
	"github.com/logan/usecasehub/internal/workflow"
)

// handleServiceError maps service and upstream errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *restclient.APIError
	var urlErr *url.Error
	var invalid *chat.ValidationError

	switch {
	case errors.As(err, &invalid):
		response.Invalid(w, invalid.Field, invalid.Reason)
	case errors.Is(err, service.ErrInvalidTab),
		errors.Is(err, usecase.ErrInvalidRating),
		errors.Is(err, account.ErrUnknownRole),
		errors.Is(err, workflow.ErrUnknownStatus):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrSendInFlight),
		errors.Is(err, workflow.ErrPolicyViolation):
		response.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, account.ErrUserNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.As(err, &apiErr):
		response.Error(w, apiErr.StatusCode, apiErr.Reason())
	case errors.As(err, &urlErr):
		middleware.Logger(r.Context()).Error("upstream unavailable", "error", err)
		response.Error(w, http.StatusBadGateway, "upstream unavailable")
	default:
		middleware.Logger(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		response.Error(w, http.StatusInternalServerError, "internal error")
	}
}
