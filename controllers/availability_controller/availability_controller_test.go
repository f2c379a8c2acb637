package availability_controller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookkeys/bookkeys/clients"
	"github.com/bookkeys/bookkeys/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.InfoLogger = logrus.New()
	logger.ErrorLogger = logrus.New()
	m.Run()
}

type fakeGraph struct {
	lastUpn string
	lastReq clients.ScheduleRequest
	body    []byte
	err     error
}

func (g *fakeGraph) GetSchedule(ctx context.Context, userUpn string, req clients.ScheduleRequest) ([]byte, error) {
	g.lastUpn = userUpn
	g.lastReq = req
	if g.err != nil {
		return nil, g.err
	}
	return g.body, nil
}

func (g *fakeGraph) SendMail(ctx context.Context, fromUpn string, req clients.SendMailRequest) error {
	return nil
}

func (g *fakeGraph) CreateEvent(ctx context.Context, calendarUpn string, req clients.EventRequest) (*clients.EventResponse, error) {
	return &clients.EventResponse{ID: "evt"}, nil
}

func newRouter(graph *fakeGraph) *gin.Engine {
	ac := NewAvailabilityController(graph)
	r := gin.New()
	r.GET("/availability", ac.GetAvailability)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestGetAvailabilityPassesProviderBodyThrough(t *testing.T) {
	t.Setenv("SCHEDULER_UPN", "scheduler@example.com")
	graph := &fakeGraph{body: []byte(`{"value":[{"availabilityView":"0120"}]}`)}
	r := newRouter(graph)

	w := get(r, "/availability?schedules=a@example.com,b@example.com&start=2030-01-08T09:00:00&end=2030-01-08T17:00:00&interval=30")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"value":[{"availabilityView":"0120"}]}`, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	assert.Equal(t, "scheduler@example.com", graph.lastUpn)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, graph.lastReq.Schedules)
	assert.Equal(t, "2030-01-08T09:00:00", graph.lastReq.StartTime.DateTime)
	assert.Equal(t, "Eastern Standard Time", graph.lastReq.StartTime.TimeZone)
	assert.Equal(t, 30, graph.lastReq.AvailabilityViewInterval)
}

func TestGetAvailabilityFallsBackToEnvSchedules(t *testing.T) {
	t.Setenv("AVAILABILITY_SCHEDULES", "exec@example.com, room@example.com")
	t.Setenv("SCHEDULER_UPN", "")
	graph := &fakeGraph{body: []byte(`{"value":[]}`)}
	r := newRouter(graph)

	w := get(r, "/availability")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"exec@example.com", "room@example.com"}, graph.lastReq.Schedules)
	// Without SCHEDULER_UPN the first schedule owns the query.
	assert.Equal(t, "exec@example.com", graph.lastUpn)
}

func TestGetAvailabilityNoSchedulesConfigured(t *testing.T) {
	t.Setenv("AVAILABILITY_SCHEDULES", "")
	r := newRouter(&fakeGraph{})

	w := get(r, "/availability")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "service not configured")
}

func TestGetAvailabilityUpstreamErrorPropagates(t *testing.T) {
	graph := &fakeGraph{err: &clients.UpstreamError{
		StatusCode: http.StatusUnauthorized,
		Body:       []byte(`{"error":{"code":"InvalidAuthenticationToken"}}`),
	}}
	r := newRouter(graph)

	w := get(r, "/availability?schedules=a@example.com")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, `{"error":{"code":"InvalidAuthenticationToken"}}`, w.Body.String())
}

func TestGetAvailabilityCustomTimezone(t *testing.T) {
	t.Setenv("AVAILABILITY_TIMEZONE", "Pacific Standard Time")
	graph := &fakeGraph{body: []byte(`{"value":[]}`)}
	r := newRouter(graph)

	w := get(r, "/availability?schedules=a@example.com")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Pacific Standard Time", graph.lastReq.StartTime.TimeZone)
	assert.Equal(t, "Pacific Standard Time", graph.lastReq.EndTime.TimeZone)
}
