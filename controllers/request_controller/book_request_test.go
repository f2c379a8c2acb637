package request_controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookkeys/bookkeys/models/request_models"
)

func newBookRouter(store *fakeStore, sender *fakeSender) *gin.Engine {
	rc := NewRequestController(store, &fakeGraph{}, sender)
	r := gin.New()
	r.POST("/book/:slug/request", rc.BookRequest)
	return r
}

func doBook(t *testing.T, r *gin.Engine, slug string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/book/"+slug+"/request", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestBookRequestMapsPageConfig(t *testing.T) {
	setSubmitEnv(t)
	t.Setenv("PAGES_JSON", `{"exec-a": {"schedulerUpn": "exec-a@example.com",
		"calendars": ["exec-a@example.com", "room-1@example.com"],
		"timeZone": "America/New_York"}}`)
	store := newFakeStore()
	sender := &fakeSender{}
	r := newBookRouter(store, sender)

	w := doBook(t, r, "exec-a", map[string]any{
		"start":    "2030-01-08T14:00:00Z",
		"duration": 45,
		"title":    "Portfolio review",
		"email":    "Visitor@Example.com",
		"notes":    "First meeting",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		RequestID uuid.UUID `json:"requestId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	rec, err := store.GetRequest(context.Background(), resp.RequestID)
	require.NoError(t, err)
	assert.Equal(t, "exec-a", rec.Slug)
	assert.Equal(t, "exec-a@example.com", rec.TargetExecUpn)
	assert.Equal(t, "visitor@example.com", rec.CustomerEmail)
	assert.Equal(t, "visitor@example.com", rec.CustomerName)
	assert.Equal(t, request_models.StatusPending, rec.Status)
	assert.Equal(t, "America/New_York", rec.InputTimeZone)
	assert.Equal(t, []string{"exec-a@example.com", "room-1@example.com"}, rec.AllMailboxes)
	assert.Equal(t, 45*60.0, rec.End.Sub(rec.Start).Seconds())
}

func TestBookRequestDefaultsDuration(t *testing.T) {
	setSubmitEnv(t)
	t.Setenv("PAGES_JSON", `{"exec-a": {"schedulerUpn": "exec-a@example.com", "calendars": ["exec-a@example.com"]}}`)
	store := newFakeStore()
	r := newBookRouter(store, &fakeSender{})

	w := doBook(t, r, "exec-a", map[string]any{
		"start": "2030-01-08T14:00:00Z",
		"title": "Quick chat",
		"email": "visitor@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		RequestID uuid.UUID `json:"requestId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	rec, err := store.GetRequest(context.Background(), resp.RequestID)
	require.NoError(t, err)
	assert.Equal(t, 30*60.0, rec.End.Sub(rec.Start).Seconds())
}

func TestBookRequestUnknownSlug(t *testing.T) {
	setSubmitEnv(t)
	t.Setenv("PAGES_JSON", `{}`)
	r := newBookRouter(newFakeStore(), &fakeSender{})

	w := doBook(t, r, "nobody", map[string]any{
		"start": "2030-01-08T14:00:00Z",
		"title": "Quick chat",
		"email": "visitor@example.com",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "unknown booking page")
}

func TestBookRequestValidation(t *testing.T) {
	setSubmitEnv(t)
	t.Setenv("PAGES_JSON", `{"exec-a": {"schedulerUpn": "exec-a@example.com", "calendars": ["exec-a@example.com"]}}`)
	r := newBookRouter(newFakeStore(), &fakeSender{})

	w := doBook(t, r, "exec-a", map[string]any{"title": "No start"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Missing start, title, or email")

	w = doBook(t, r, "exec-a", map[string]any{
		"start": "January 8th",
		"title": "Bad start",
		"email": "visitor@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid start time")
}
