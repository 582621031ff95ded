package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"bulletnotes/internal/note/model"
	"bulletnotes/internal/note/service"
	"bulletnotes/pkg/logger"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

// Response is the envelope every note endpoint writes.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type NoteHandler struct {
	Service *service.NoteService
}

func NewNoteHandler(service *service.NoteService) *NoteHandler {
	return &NoteHandler{Service: service}
}

func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.Service.ListNotes(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.fail(w, r, err, "Failed to fetch notes")
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: notes})
}

func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req model.CreateNoteRequest
	if !decode(w, r, &req) {
		return
	}

	n, err := h.Service.CreateNote(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, "Failed to create note")
		return
	}
	writeJSON(w, http.StatusCreated, Response{Success: true, Data: n})
}

func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.GetNote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "Internal Server Error")
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: n})
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	// Identifier errors take precedence over body errors.
	if _, err := model.ParseID(id); err != nil {
		h.fail(w, r, err, "Failed to update note")
		return
	}

	var req model.UpdateNoteRequest
	if !decode(w, r, &req) {
		return
	}

	n, err := h.Service.UpdateNote(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, err, "Failed to update note")
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: n})
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteNote(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, "Failed to delete note")
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Note deleted successfully"})
}

// fail maps a service error to its status code. Unexpected errors are
// logged and reported with the generic fallback message only.
func (h *NoteHandler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, model.ErrInvalidIdentifier):
		writeJSON(w, http.StatusBadRequest, Response{Error: "Invalid note ID format"})
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Response{Error: "Note not found"})
	case errors.Is(err, model.ErrValidation):
		writeJSON(w, http.StatusBadRequest, Response{Error: err.Error()})
	default:
		logger.Sugar.Errorw("Handler: request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimiddleware.GetReqID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, Response{Error: fallback})
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Error: "Invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Sugar.Errorf("Failed to write response: %v", err)
	}
}
