package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (t staticToken) GetValid(ctx context.Context) (string, error) {
	return string(t), nil
}

func newTestClient(ts *httptest.Server) *GraphClient {
	return &GraphClient{
		Credentials: staticToken("test-token"),
		HTTPClient:  ts.Client(),
		BaseURL:     ts.URL,
	}
}

func TestGetScheduleSendsBearerAndPayload(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq ScheduleRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":[{"availabilityView":"0000"}]}`))
	}))
	defer ts.Close()

	body, err := newTestClient(ts).GetSchedule(context.Background(), "scheduler@example.com", ScheduleRequest{
		Schedules:                []string{"exec@example.com"},
		StartTime:                DateTimeTimeZone{DateTime: "2030-01-08T14:00:00", TimeZone: "UTC"},
		EndTime:                  DateTimeTimeZone{DateTime: "2030-01-08T22:00:00", TimeZone: "UTC"},
		AvailabilityViewInterval: 15,
	})
	require.NoError(t, err)

	assert.Equal(t, "/users/scheduler@example.com/calendar/getSchedule", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, []string{"exec@example.com"}, gotReq.Schedules)
	assert.Equal(t, 15, gotReq.AvailabilityViewInterval)
	assert.Contains(t, string(body), "availabilityView")
}

func TestGetScheduleWrapsUpstreamFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":"ErrorAccessDenied"}}`))
	}))
	defer ts.Close()

	_, err := newTestClient(ts).GetSchedule(context.Background(), "x@example.com", ScheduleRequest{})
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusForbidden, upstream.StatusCode)
	assert.Contains(t, string(upstream.Body), "ErrorAccessDenied")
}

func TestSendMailAcceptedStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/scheduler@example.com/sendMail", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	var req SendMailRequest
	req.Message.Subject = "Approval needed"
	err := newTestClient(ts).SendMail(context.Background(), "scheduler@example.com", req)
	assert.NoError(t, err)
}

func TestCreateEventReturnsID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/exec@example.com/events", r.URL.Path)
		var got EventRequest
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "Intro call", got.Subject)
		assert.True(t, got.IsOnlineMeeting)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"AAMkAGI1","subject":"Intro call"}`))
	}))
	defer ts.Close()

	resp, err := newTestClient(ts).CreateEvent(context.Background(), "exec@example.com", EventRequest{
		Subject:               "Intro call",
		IsOnlineMeeting:       true,
		OnlineMeetingProvider: "teamsForBusiness",
	})
	require.NoError(t, err)
	assert.Equal(t, "AAMkAGI1", resp.ID)
}

func TestCreateEventUpstreamConflict(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"code":"ErrorDuplicateTransactionId"}}`))
	}))
	defer ts.Close()

	_, err := newTestClient(ts).CreateEvent(context.Background(), "exec@example.com", EventRequest{})
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusConflict, upstream.StatusCode)
}

func TestNewCredentialCacheRequiresConfig(t *testing.T) {
	_, err := NewCredentialCache("", "client", "secret")
	assert.Error(t, err)
	_, err = NewCredentialCache("tenant", "", "secret")
	assert.Error(t, err)

	cc, err := NewCredentialCache("tenant", "client", "secret")
	require.NoError(t, err)
	assert.NotNil(t, cc)
}

func TestCredentialCacheConcurrentGetValid(t *testing.T) {
	var tokenCalls int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&tokenCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"cached-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer ts.Close()

	cc, err := NewCredentialCache("tenant", "client", "secret")
	require.NoError(t, err)
	cc.conf.TokenURL = ts.URL

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := cc.GetValid(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "cached-token", tok)
		}()
	}
	wg.Wait()

	// A warm cache serves later callers without another token round trip.
	calls := atomic.LoadInt64(&tokenCalls)
	tok, err := cc.GetValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached-token", tok)
	assert.Equal(t, calls, atomic.LoadInt64(&tokenCalls))
}

func TestGraphClientTimeout(t *testing.T) {
	c := NewGraphClient(staticToken("t"))
	assert.Equal(t, 15*time.Second, c.HTTPClient.Timeout)
	assert.Equal(t, graphBaseURL, c.BaseURL)
}
