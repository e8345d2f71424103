package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/logan/usecasehub/internal/api/middleware"
	"github.com/logan/usecasehub/internal/api/response"
	"github.com/logan/usecasehub/internal/chat"
	"github.com/logan/usecasehub/internal/service"
)

// maxUploadBytes bounds the multipart body; the file itself is checked
// against chat.MaxAttachmentBytes.
const maxUploadBytes = chat.MaxAttachmentBytes + 64<<10

// ChatHandler holds handlers for per-tab chat sessions.
type ChatHandler struct {
	tabs *service.TabService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(tabs *service.TabService) *ChatHandler {
	return &ChatHandler{tabs: tabs}
}

// OpenTab handles POST /tabs and hands out a fresh tab id.
func (h *ChatHandler) OpenTab(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	tabID := service.NewTabID()

	state, err := h.tabs.State(r.Context(), userID, tabID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]any{"tab_id": tabID, "state": state})
}

// Get handles GET /tabs/{tab}/chat
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	state, err := h.tabs.State(r.Context(), userID, chi.URLParam(r, "tab"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, state)
}

type sendRequest struct {
	Message string `json:"message"`
}

type sendResponse struct {
	Messages  []chat.Message `json:"messages"`
	ToolCalls []string       `json:"tool_calls"`
	Refreshed bool           `json:"refreshed"`
	Failed    bool           `json:"failed"`
}

// Send handles POST /tabs/{tab}/chat. An agent failure still answers 200:
// the error is part of the transcript.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn, err := h.tabs.Send(r.Context(), userID, chi.URLParam(r, "tab"), req.Message)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	toolCalls := turn.ToolCalls
	if toolCalls == nil {
		toolCalls = []string{}
	}
	response.JSON(w, http.StatusOK, sendResponse{
		Messages:  []chat.Message{turn.User, turn.Assistant},
		ToolCalls: toolCalls,
		Refreshed: turn.Refreshed,
		Failed:    turn.Err != nil,
	})
}

// Clear handles DELETE /tabs/{tab}/chat
func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	if err := h.tabs.Clear(r.Context(), userID, chi.URLParam(r, "tab")); err != nil {
		handleServiceError(w, r, err)
		return
	}

	response.NoContent(w)
}

// Reset handles POST /tabs/{tab}/session and starts a new session.
func (h *ChatHandler) Reset(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	state, err := h.tabs.Reset(r.Context(), userID, chi.URLParam(r, "tab"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, state)
}

// Attach handles PUT /tabs/{tab}/attachment with a multipart "file" field.
func (h *ChatHandler) Attach(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusBadRequest, "file is too large")
			return
		}
		response.Error(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, chat.MaxAttachmentBytes+1))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "could not read file")
		return
	}

	name := header.Filename
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	att, err := h.tabs.Attach(r.Context(), userID, chi.URLParam(r, "tab"), name, content)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{"name": att.Name, "size": att.Size()})
}

// Detach handles DELETE /tabs/{tab}/attachment
func (h *ChatHandler) Detach(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	if err := h.tabs.ClearAttachment(r.Context(), userID, chi.URLParam(r, "tab")); err != nil {
		handleServiceError(w, r, err)
		return
	}

	response.NoContent(w)
}
