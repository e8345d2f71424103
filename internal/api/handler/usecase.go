package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/logan/usecasehub/internal/api/middleware"
	"github.com/logan/usecasehub/internal/api/response"
	"github.com/logan/usecasehub/internal/usecase"
	"github.com/logan/usecasehub/internal/workflow"
)

// ChangeNotifier is told about every successful mutation so views refresh.
type ChangeNotifier interface {
	NotifyChanged(ctx context.Context, source string) uint64
}

// UseCaseHandler forwards use-case reads and mutations to the backend,
// checking the status workflow before anything is sent.
type UseCaseHandler struct {
	cases    *usecase.Client
	notifier ChangeNotifier
}

// NewUseCaseHandler creates a new UseCaseHandler.
func NewUseCaseHandler(cases *usecase.Client, notifier ChangeNotifier) *UseCaseHandler {
	return &UseCaseHandler{cases: cases, notifier: notifier}
}

func parseID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil && id > 0
}

// List handles GET /use-cases/
func (h *UseCaseHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f usecase.Filter
	f.CompanyID, _ = strconv.Atoi(q.Get("company_id"))
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	f.Search = q.Get("search")
	if s := q.Get("status"); s != "" {
		status, err := workflow.Parse(s)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		f.Status = status
	}

	page, err := h.cases.List(r.Context(), f)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, page)
}

// Get handles GET /use-cases/{id}
func (h *UseCaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		response.Error(w, http.StatusBadRequest, "invalid use case id")
		return
	}

	uc, err := h.cases.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, uc)
}

// Update handles PATCH /use-cases/{id}. A status change outside the
// workflow is refused with 409 and never reaches the backend.
func (h *UseCaseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		response.Error(w, http.StatusBadRequest, "invalid use case id")
		return
	}

	var patch usecase.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.Empty() {
		response.Error(w, http.StatusBadRequest, "nothing to update")
		return
	}
	if patch.Status != nil && !patch.Status.Valid() {
		response.Error(w, http.StatusBadRequest, "unknown status "+strconv.Quote(string(*patch.Status)))
		return
	}

	current, err := h.cases.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	updated, err := h.cases.Update(r.Context(), current, patch)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.changed(r, "usecase.update", id)
	response.JSON(w, http.StatusOK, updated)
}

// Archive handles DELETE /use-cases/{id}
func (h *UseCaseHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		response.Error(w, http.StatusBadRequest, "invalid use case id")
		return
	}

	current, err := h.cases.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.cases.Archive(r.Context(), current); err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.changed(r, "usecase.archive", id)
	response.NoContent(w)
}

// Restore handles POST /use-cases/{id}/restore
func (h *UseCaseHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		response.Error(w, http.StatusBadRequest, "invalid use case id")
		return
	}

	current, err := h.cases.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	restored, err := h.cases.Restore(r.Context(), current)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.changed(r, "usecase.restore", id)
	response.JSON(w, http.StatusOK, restored)
}

func (h *UseCaseHandler) changed(r *http.Request, source string, id int) {
	epoch := h.notifier.NotifyChanged(r.Context(), source)
	middleware.Logger(r.Context()).Info("use case changed",
		"use_case_id", id, "source", source, "epoch", epoch,
		"user_id", middleware.UserIDFromContext(r.Context()))
}
