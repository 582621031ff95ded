package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bulletnotes/internal/note/model"
	"bulletnotes/internal/note/notetest"
	"bulletnotes/internal/note/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const missingID = "0b7e5d2a-6c1f-4d8e-9a3b-2f4c6e8a0b1d"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func setup(t *testing.T) (http.Handler, *notetest.MemStore) {
	t.Helper()
	store := notetest.NewMemStore()
	h := NewNoteHandler(service.NewNoteService(store))

	r := chi.NewRouter()
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{id}", h.GetNote)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)
	return r, store
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decodeNote(t *testing.T, raw json.RawMessage) model.Note {
	t.Helper()
	var n model.Note
	require.NoError(t, json.Unmarshal(raw, &n))
	return n
}

func TestCreateGetDeleteFlow(t *testing.T) {
	h, _ := setup(t)

	code, env := do(t, h, http.MethodPost, "/notes", `{"subject":"Groceries","content":["Milk","Eggs"]}`)
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, env.Success)
	created := decodeNote(t, env.Data)
	assert.Equal(t, []string{"Milk", "Eggs"}, created.Content)
	assert.Equal(t, "", created.SubHeader)

	code, env = do(t, h, http.MethodGet, "/notes/"+created.ID, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, created.Content, decodeNote(t, env.Data).Content)

	code, env = do(t, h, http.MethodDelete, "/notes/"+created.ID, "")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Equal(t, "Note deleted successfully", env.Message)
	assert.Empty(t, env.Data)

	code, env = do(t, h, http.MethodGet, "/notes/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
	assert.Equal(t, "Note not found", env.Error)
}

func TestCreateRejectsEmptyContent(t *testing.T) {
	h, store := setup(t)

	code, env := do(t, h, http.MethodPost, "/notes", `{"subject":"Empty","content":[]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)
	assert.Equal(t, "Content must be a non-empty array", env.Error)
	assert.Zero(t, store.Len())
}

func TestCreateRejectsBadBody(t *testing.T) {
	h, _ := setup(t)

	code, env := do(t, h, http.MethodPost, "/notes", `{"subject":`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid request body", env.Error)
}

func TestInvalidIDIs400(t *testing.T) {
	h, store := setup(t)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		code, env := do(t, h, method, "/notes/not-a-uuid", `{"subject":"x"}`)
		assert.Equal(t, http.StatusBadRequest, code, method)
		assert.Equal(t, "Invalid note ID format", env.Error, method)
	}
	assert.Zero(t, store.Calls)
}

func TestUnknownIDIs404(t *testing.T) {
	h, _ := setup(t)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		code, _ := do(t, h, method, "/notes/"+missingID, `{"subject":"x"}`)
		assert.Equal(t, http.StatusNotFound, code, method)
	}
}

func TestUpdatePartial(t *testing.T) {
	h, _ := setup(t)
	_, env := do(t, h, http.MethodPost, "/notes", `{"subject":"Trip","subHeader":"Packing","content":["Socks"]}`)
	orig := decodeNote(t, env.Data)

	code, env := do(t, h, http.MethodPut, "/notes/"+orig.ID, `{"content":"Passport"}`)
	require.Equal(t, http.StatusOK, code)
	updated := decodeNote(t, env.Data)
	assert.Equal(t, "Trip", updated.Subject)
	assert.Equal(t, "Packing", updated.SubHeader)
	assert.Equal(t, []string{"Passport"}, updated.Content)
	assert.False(t, updated.UpdatedAt.Before(orig.UpdatedAt))

	code, env = do(t, h, http.MethodPut, "/notes/"+orig.ID, `{"content":42}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"42"}, decodeNote(t, env.Data).Content)

	code, env = do(t, h, http.MethodPut, "/notes/"+orig.ID, `{"content":["Tickets",2]}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"Tickets", "2"}, decodeNote(t, env.Data).Content)

	code, env = do(t, h, http.MethodPut, "/notes/"+orig.ID, `{"subject":""}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Subject is required", env.Error)
}

func TestListAndSearch(t *testing.T) {
	h, _ := setup(t)
	do(t, h, http.MethodPost, "/notes", `{"subject":"Groceries","content":["Milk"]}`)
	do(t, h, http.MethodPost, "/notes", `{"subject":"Workout","content":["Squats"]}`)

	code, env := do(t, h, http.MethodGet, "/notes", "")
	require.Equal(t, http.StatusOK, code)
	var all []model.Note
	require.NoError(t, json.Unmarshal(env.Data, &all))
	require.Len(t, all, 2)
	assert.Equal(t, "Workout", all[0].Subject)

	code, env = do(t, h, http.MethodGet, "/notes?search=milk", "")
	require.Equal(t, http.StatusOK, code)
	var hits []model.Note
	require.NoError(t, json.Unmarshal(env.Data, &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, "Groceries", hits[0].Subject)

	code, env = do(t, h, http.MethodGet, "/notes?search=milk+squats", "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &hits))
	assert.Len(t, hits, 2, "any word matches")

	code, env = do(t, h, http.MethodGet, "/notes?search=nothing", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestStoreFailureIsGeneric500(t *testing.T) {
	h, store := setup(t)
	store.Err = errors.New("pq: password authentication failed for user notes")

	code, env := do(t, h, http.MethodGet, "/notes", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, env.Success)
	assert.Equal(t, "Failed to fetch notes", env.Error)

	code, env = do(t, h, http.MethodPost, "/notes", `{"subject":"x","content":["y"]}`)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Failed to create note", env.Error)
	assert.NotContains(t, env.Error, "password")
}
