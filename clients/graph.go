package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

// UpstreamError carries the provider's status and body so read paths can
// propagate them verbatim.
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("graph returned status %d", e.StatusCode)
}

// DateTimeTimeZone is the Graph {dateTime, timeZone} pair.
type DateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// ScheduleRequest is the getSchedule request body.
type ScheduleRequest struct {
	Schedules                []string         `json:"schedules"`
	StartTime                DateTimeTimeZone `json:"startTime"`
	EndTime                  DateTimeTimeZone `json:"endTime"`
	AvailabilityViewInterval int              `json:"availabilityViewInterval"`
}

type EmailAddress struct {
	Address string `json:"address"`
}

type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

type ItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type MessageHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FileAttachment is a Graph file attachment; ContentBytes is base64.
type FileAttachment struct {
	ODataType    string `json:"@odata.type"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType"`
	ContentBytes string `json:"contentBytes"`
}

// SendMailRequest is the sendMail request body.
type SendMailRequest struct {
	Message struct {
		Subject                string           `json:"subject"`
		Body                   ItemBody         `json:"body"`
		ToRecipients           []Recipient      `json:"toRecipients"`
		InternetMessageHeaders []MessageHeader  `json:"internetMessageHeaders,omitempty"`
		Attachments            []FileAttachment `json:"attachments,omitempty"`
	} `json:"message"`
	SaveToSentItems bool `json:"saveToSentItems"`
}

type EventAttendee struct {
	EmailAddress EmailAddress `json:"emailAddress"`
	Type         string       `json:"type"`
}

// EventRequest is the calendar event creation body.
type EventRequest struct {
	Subject               string           `json:"subject"`
	Body                  ItemBody         `json:"body"`
	Start                 DateTimeTimeZone `json:"start"`
	End                   DateTimeTimeZone `json:"end"`
	Attendees             []EventAttendee  `json:"attendees"`
	ResponseRequested     bool             `json:"responseRequested"`
	TransactionID         string           `json:"transactionId,omitempty"`
	IsOnlineMeeting       bool             `json:"isOnlineMeeting,omitempty"`
	OnlineMeetingProvider string           `json:"onlineMeetingProvider,omitempty"`
}

// EventResponse is the subset of the created event we care about.
type EventResponse struct {
	ID string `json:"id"`
}

// GraphClientWrapper provides an interface for Microsoft Graph operations.
// This interface allows for easier testing by mocking Graph interactions.
type GraphClientWrapper interface {
	GetSchedule(ctx context.Context, userUpn string, req ScheduleRequest) ([]byte, error)
	SendMail(ctx context.Context, fromUpn string, req SendMailRequest) error
	CreateEvent(ctx context.Context, calendarUpn string, req EventRequest) (*EventResponse, error)
}

// GraphClient implements GraphClientWrapper over the Graph REST API.
type GraphClient struct {
	Credentials TokenProvider
	HTTPClient  *http.Client
	BaseURL     string
}

// NewGraphClient creates and returns a new instance of GraphClient.
func NewGraphClient(creds TokenProvider) *GraphClient {
	return &GraphClient{
		Credentials: creds,
		HTTPClient:  &http.Client{Timeout: 15 * time.Second},
		BaseURL:     graphBaseURL,
	}
}

func (g *GraphClient) post(ctx context.Context, path string, payload interface{}) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to serialize graph payload: %w", err)
	}

	token, err := g.Credentials.GetValid(ctx)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to construct graph request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("graph request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // cap at 1MB
	return resp.StatusCode, respBody, nil
}

// GetSchedule queries busy/free availability views via the scheduler mailbox.
// On a non-2xx response the provider status and body come back wrapped in an
// UpstreamError so callers can return them verbatim.
func (g *GraphClient) GetSchedule(ctx context.Context, userUpn string, req ScheduleRequest) ([]byte, error) {
	status, body, err := g.post(ctx, fmt.Sprintf("/users/%s/calendar/getSchedule", url.PathEscape(userUpn)), req)
	if err != nil {
		return nil, err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, &UpstreamError{StatusCode: status, Body: body}
	}
	return body, nil
}

// SendMail sends a message from the given mailbox.
func (g *GraphClient) SendMail(ctx context.Context, fromUpn string, req SendMailRequest) error {
	status, body, err := g.post(ctx, fmt.Sprintf("/users/%s/sendMail", url.PathEscape(fromUpn)), req)
	if err != nil {
		return err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return &UpstreamError{StatusCode: status, Body: body}
	}
	return nil
}

// CreateEvent creates a calendar event on the given mailbox and returns the
// provider's event id.
func (g *GraphClient) CreateEvent(ctx context.Context, calendarUpn string, req EventRequest) (*EventResponse, error) {
	status, body, err := g.post(ctx, fmt.Sprintf("/users/%s/events", url.PathEscape(calendarUpn)), req)
	if err != nil {
		return nil, err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, &UpstreamError{StatusCode: status, Body: body}
	}
	var ev EventResponse
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("invalid graph event response: %w", err)
	}
	return &ev, nil
}
