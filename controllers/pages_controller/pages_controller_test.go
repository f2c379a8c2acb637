package pages_controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookkeys/bookkeys/config"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func newPagesRouter() *gin.Engine {
	r := gin.New()
	r.GET("/book/pages", NewPagesController().ListPages)
	return r
}

func listPages(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/book/pages", nil))
	return w
}

type pagesResponse struct {
	Pages []struct {
		Slug          string               `json:"slug"`
		TimeZone      string               `json:"timeZone"`
		BusinessHours config.BusinessHours `json:"businessHours"`
	} `json:"pages"`
}

func TestListPagesPublicFieldsOnly(t *testing.T) {
	t.Setenv("PAGES_JSON", `{"exec-a": {"schedulerUpn": "exec-a@example.com",
		"calendars": ["exec-a@example.com", "room-1@example.com"],
		"timeZone": "Europe/London",
		"businessHours": {"start": "08:30", "end": "16:00"}}}`)
	r := newPagesRouter()

	w := listPages(r)
	require.Equal(t, http.StatusOK, w.Code)

	var resp pagesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Pages, 1)
	assert.Equal(t, "exec-a", resp.Pages[0].Slug)
	assert.Equal(t, "Europe/London", resp.Pages[0].TimeZone)
	assert.Equal(t, "08:30", resp.Pages[0].BusinessHours.Start)

	// Scheduler identity and calendar lists never leave the server.
	assert.NotContains(t, w.Body.String(), "schedulerUpn")
	assert.NotContains(t, w.Body.String(), "room-1@example.com")
}

func TestListPagesSkipsInvalidEntries(t *testing.T) {
	t.Setenv("PAGES_JSON", `{"good": {"schedulerUpn": "g@example.com", "calendars": ["g@example.com"]},
		"bad": {"calendars": ["x@example.com"]}}`)
	r := newPagesRouter()

	w := listPages(r)
	require.Equal(t, http.StatusOK, w.Code)

	var resp pagesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Pages, 1)
	assert.Equal(t, "good", resp.Pages[0].Slug)
}

func TestListPagesEmptyConfig(t *testing.T) {
	t.Setenv("PAGES_JSON", "")
	r := newPagesRouter()

	w := listPages(r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pages":[]`)
}
