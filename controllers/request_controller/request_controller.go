package request_controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bookkeys/bookkeys/badwords"
	"github.com/bookkeys/bookkeys/clients"
	"github.com/bookkeys/bookkeys/logger"
	"github.com/bookkeys/bookkeys/models/request_models"
	"github.com/bookkeys/bookkeys/utils/format"
	"github.com/bookkeys/bookkeys/utils/ics"
	"github.com/bookkeys/bookkeys/utils/mail"
	"github.com/bookkeys/bookkeys/utils/metrics"
	"github.com/bookkeys/bookkeys/utils/tokens"
)

// RequestTTL is the fixed approval horizon set at creation.
const RequestTTL = 48 * time.Hour

const utcDateTimeLayout = "2006-01-02T15:04:05"

// RequestStore is the persistence surface the controller needs.
type RequestStore interface {
	CreateRequest(ctx context.Context, r *request_models.BookingRequest) error
	GetRequest(ctx context.Context, id uuid.UUID) (*request_models.BookingRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, patch request_models.StatusPatch) error
	IndexByOwner(ctx context.Context, ownerUserID string, summary request_models.RequestSummary) error
	ListByOwner(ctx context.Context, ownerUserID string) ([]request_models.RequestSummary, error)
}

// RequestController orchestrates the booking-request lifecycle: submission
// with token issuance and approver notification, then accept/decline actions
// with expiry and idempotency checks.
type RequestController struct {
	Store  RequestStore
	Graph  clients.GraphClientWrapper
	Mailer mail.Sender
}

// NewRequestController creates a new instance of RequestController.
func NewRequestController(store RequestStore, graph clients.GraphClientWrapper, mailer mail.Sender) *RequestController {
	return &RequestController{
		Store:  store,
		Graph:  graph,
		Mailer: mailer,
	}
}

type customerBody struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SubmitRequestBody is the generic submit contract.
type SubmitRequestBody struct {
	OwnerUserID  string       `json:"ownerUserId"`
	Slug         string       `json:"slug"`
	ExecEmail    string       `json:"execEmail"`
	Title        string       `json:"title"`
	Start        string       `json:"start"`
	End          string       `json:"end"`
	WantsTeams   bool         `json:"wantsTeams"`
	Customer     customerBody `json:"customer"`
	Attendees    []string     `json:"attendees"`
	Notes        string       `json:"notes"`
	AllMailboxes []string     `json:"allMailboxes"`
	TimeZone     string       `json:"timeZone"`
}

func normalizeEmails(in []string) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// SubmitRequest handles POST /requests/submit: validates the booking,
// persists it as pending with a signed-token hash, and mails the approver.
func (rc *RequestController) SubmitRequest(c *gin.Context) {
	var body SubmitRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	status, resp := rc.submit(c.Request.Context(), body)
	c.JSON(status, resp)
}

// submit implements the shared submit path for the generic and slug-scoped
// endpoints. It returns the HTTP status and JSON body to emit.
func (rc *RequestController) submit(ctx context.Context, body SubmitRequestBody) (int, gin.H) {
	scheduler := os.Getenv("REQUEST_FROM_UPN")
	if scheduler == "" {
		scheduler = os.Getenv("SCHEDULER_UPN")
	}
	brand := os.Getenv("BRAND_NAME")
	if brand == "" {
		brand = "Booking"
	}
	baseURL := os.Getenv("BASE_URL")
	pepper := os.Getenv("APPROVAL_SIGNING_KEY")
	if scheduler == "" || baseURL == "" || pepper == "" {
		logger.ErrorLogger.Error("Missing REQUEST_FROM_UPN/SCHEDULER_UPN or BASE_URL or APPROVAL_SIGNING_KEY")
		return http.StatusInternalServerError, gin.H{"error": "service not configured"}
	}

	ownerUserID := strings.TrimSpace(body.OwnerUserID)
	if ownerUserID == "" {
		ownerUserID = request_models.DefaultOwnerUserID
	}
	slug := strings.TrimSpace(body.Slug)
	execEmail := strings.ToLower(strings.TrimSpace(body.ExecEmail))
	title := strings.TrimSpace(body.Title)
	customerEmail := strings.ToLower(strings.TrimSpace(body.Customer.Email))
	customerName := strings.TrimSpace(body.Customer.Name)
	attendees := normalizeEmails(body.Attendees)
	timeZone := strings.TrimSpace(body.TimeZone)
	if timeZone == "" {
		timeZone = "UTC"
	}

	if slug == "" || execEmail == "" || title == "" || body.Start == "" || body.End == "" ||
		customerEmail == "" || customerName == "" {
		return http.StatusBadRequest, gin.H{
			"error": "Missing required fields: slug, execEmail, title, start, end, customer{name,email}",
		}
	}

	if badwords.ContainsBadWords(title) || badwords.ContainsBadWords(body.Notes) {
		return http.StatusBadRequest, gin.H{"error": "title or notes contain disallowed content"}
	}

	start, err := time.Parse(time.RFC3339, body.Start)
	if err != nil {
		return http.StatusBadRequest, gin.H{"error": "invalid start time"}
	}
	end, err := time.Parse(time.RFC3339, body.End)
	if err != nil {
		return http.StatusBadRequest, gin.H{"error": "invalid end time"}
	}

	id, err := uuid.NewV7()
	if err != nil {
		logger.ErrorLogger.Errorf("failed to generate request id: %v", err)
		return http.StatusInternalServerError, gin.H{"error": "internal error"}
	}
	token, err := tokens.GenerateToken()
	if err != nil {
		logger.ErrorLogger.Errorf("failed to generate approval token: %v", err)
		return http.StatusInternalServerError, gin.H{"error": "internal error"}
	}

	now := time.Now().UTC()
	req := &request_models.BookingRequest{
		ID:            id,
		OwnerUserID:   ownerUserID,
		Slug:          slug,
		TargetExecUpn: execEmail,
		Title:         title,
		Start:         start.UTC(),
		End:           end.UTC(),
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
		Attendees:     attendees,
		WantsTeams:    body.WantsTeams,
		Notes:         body.Notes,
		Status:        request_models.StatusPending,
		CreatedAt:     now,
		ExpiresAt:     now.Add(RequestTTL),
		TokenHash:     tokens.ComputeTokenHash(id.String(), token, pepper),
		AllMailboxes:  normalizeEmails(body.AllMailboxes),
		InputTimeZone: timeZone,
	}

	if err := rc.Store.CreateRequest(ctx, req); err != nil {
		logger.ErrorLogger.Errorf("failed to persist booking request: %v", err)
		return http.StatusInternalServerError, gin.H{"error": "internal error"}
	}

	// Denormalized listing projection; never rolls back the primary write.
	if err := rc.Store.IndexByOwner(ctx, ownerUserID, request_models.RequestSummary{
		RequestID:     id,
		CreatedAt:     now,
		Status:        request_models.StatusPending,
		TargetExecUpn: execEmail,
		Start:         req.Start,
		End:           req.End,
		InputTimeZone: timeZone,
	}); err != nil {
		logger.ErrorLogger.Errorf("failed to index request %s by owner: %v", id, err)
	}

	approveURL := fmt.Sprintf("%s/requests/%s/accept?t=%s", baseURL, id, url.QueryEscape(token))
	declineURL := fmt.Sprintf("%s/requests/%s/decline?t=%s", baseURL, id, url.QueryEscape(token))

	teams := "No"
	if body.WantsTeams {
		teams = "Yes"
	}
	html, err := mail.BuildApprovalHTML(mail.ApprovalEmailData{
		Brand:         brand,
		Title:         title,
		When:          format.FormatWhenRange(req.Start, req.End, timeZone),
		CustomerEmail: customerEmail,
		Attendees:     strings.Join(append([]string{customerEmail}, attendees...), ", "),
		Teams:         teams,
		Notes:         body.Notes,
		ApproveURL:    safeURL(approveURL),
		DeclineURL:    safeURL(declineURL),
	})
	if err != nil {
		logger.ErrorLogger.Errorf("failed to render approval email: %v", err)
		return http.StatusInternalServerError, gin.H{"error": "internal error"}
	}

	invite := ics.Build(ics.Event{
		UID:         id.String(),
		Summary:     title,
		Description: fmt.Sprintf("Requested by %s (%s)", customerName, customerEmail),
		Organizer:   execEmail,
		Attendees:   append([]string{customerEmail}, attendees...),
		Start:       req.Start,
		End:         req.End,
		Stamp:       now,
	})

	err = rc.Mailer.Send(ctx, mail.Message{
		From:    scheduler,
		To:      execEmail,
		Subject: "Approval needed: " + title,
		HTML:    html,
		Headers: map[string]string{"X-BookKeys-Request-Id": id.String()},
		ICS:     invite,
	})
	if err != nil {
		var upstream *clients.UpstreamError
		if errors.As(err, &upstream) {
			logger.ErrorLogger.Errorf("sendMail error: status=%d body=%s", upstream.StatusCode, upstream.Body)
			return upstream.StatusCode, gin.H{"error": "failed to send approval mail"}
		}
		logger.ErrorLogger.Errorf("sendMail error: %v", err)
		return http.StatusInternalServerError, gin.H{"error": "failed to send approval mail"}
	}

	metrics.Default.RequestsSubmitted.Inc()
	return http.StatusOK, gin.H{"requestId": id}
}

// AcceptRequest handles GET /requests/:id/accept.
func (rc *RequestController) AcceptRequest(c *gin.Context) {
	rc.processAction(c, request_models.StatusAccepted)
}

// DeclineRequest handles GET /requests/:id/decline.
func (rc *RequestController) DeclineRequest(c *gin.Context) {
	rc.processAction(c, request_models.StatusDeclined)
}

// processAction validates the signed link and applies the accept or decline
// transition. Handlers for both actions share this path; the checks run in a
// fixed order so a terminal record is always reported as processed before any
// token material is inspected.
func (rc *RequestController) processAction(c *gin.Context, action string) {
	ctx := c.Request.Context()
	idStr := c.Param("id")
	token := c.Query("t")
	pepper := os.Getenv("APPROVAL_SIGNING_KEY")

	if idStr == "" || token == "" || pepper == "" {
		htmlPage(c, http.StatusBadRequest, "Invalid", "<p>Invalid approval link.</p>")
		return
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		htmlPage(c, http.StatusNotFound, "Not found", "<p>Request not found.</p>")
		return
	}

	ent, err := rc.Store.GetRequest(ctx, id)
	if err != nil {
		if errors.Is(err, request_models.ErrNotFound) {
			htmlPage(c, http.StatusNotFound, "Not found", "<p>Request not found.</p>")
			return
		}
		logger.ErrorLogger.Errorf("failed to load request %s: %v", id, err)
		htmlPage(c, http.StatusInternalServerError, "Error", "<p>Internal error.</p>")
		return
	}

	// Repeated clicks on an already-processed link are a no-op success.
	if ent.Status != request_models.StatusPending {
		htmlPage(c, http.StatusOK, "Processed", "<p>This request has already been processed.</p>")
		return
	}

	now := time.Now().UTC()
	if now.After(ent.ExpiresAt) {
		if err := rc.Store.UpdateStatus(ctx, id, request_models.StatusPatch{
			Status:       request_models.StatusExpired,
			LastActionAt: now,
		}); err != nil {
			logger.ErrorLogger.Errorf("failed to expire request %s: %v", id, err)
		}
		metrics.Default.RequestsExpired.Inc()
		htmlPage(c, http.StatusOK, "Expired", "<p>This approval link has expired.</p>")
		return
	}

	expected := tokens.ComputeTokenHash(id.String(), token, pepper)
	if !tokens.Verify(ent.TokenHash, expected) {
		htmlPage(c, http.StatusBadRequest, "Invalid", "<p>Invalid approval token.</p>")
		return
	}

	if action == request_models.StatusDeclined {
		if err := rc.Store.UpdateStatus(ctx, id, request_models.StatusPatch{
			Status:       request_models.StatusDeclined,
			LastActionAt: time.Now().UTC(),
		}); err != nil {
			logger.ErrorLogger.Errorf("failed to decline request %s: %v", id, err)
			htmlPage(c, http.StatusInternalServerError, "Error", "<p>Internal error.</p>")
			return
		}
		metrics.Default.RequestsDeclined.Inc()
		htmlPage(c, http.StatusOK, "Declined", "<p>Request declined.</p>")
		return
	}

	eventID, err := rc.finalizeEvent(ctx, ent)
	if err != nil {
		// Stays pending so the approver may retry the link.
		var upstream *clients.UpstreamError
		if errors.As(err, &upstream) {
			logger.ErrorLogger.Errorf("create exec event error: status=%d body=%s", upstream.StatusCode, upstream.Body)
		} else {
			logger.ErrorLogger.Errorf("create exec event error: %v", err)
		}
		metrics.Default.FinalizeFailures.Inc()
		htmlPage(c, http.StatusBadGateway, "Failed",
			"<p>Could not finalize the meeting. The slot may be unavailable or license is missing.</p>")
		return
	}

	if err := rc.Store.UpdateStatus(ctx, id, request_models.StatusPatch{
		Status:       request_models.StatusAccepted,
		LastActionAt: time.Now().UTC(),
		ExecEventID:  eventID,
	}); err != nil {
		logger.ErrorLogger.Errorf("failed to mark request %s accepted: %v", id, err)
		htmlPage(c, http.StatusInternalServerError, "Error", "<p>Internal error.</p>")
		return
	}

	metrics.Default.RequestsAccepted.Inc()
	htmlPage(c, http.StatusOK, "Approved",
		"<p>Meeting approved. Invites have been sent from the exec's calendar.</p>")
}

// finalizeEvent creates the final calendar event on the target mailbox. When
// a Teams meeting was requested and the provider rejects the first attempt,
// it retries exactly once with the online-meeting flag cleared.
func (rc *RequestController) finalizeEvent(ctx context.Context, ent *request_models.BookingRequest) (string, error) {
	attendees := make([]clients.EventAttendee, 0, len(ent.Attendees)+1)
	for _, a := range append([]string{ent.CustomerEmail}, ent.Attendees...) {
		attendees = append(attendees, clients.EventAttendee{
			EmailAddress: clients.EmailAddress{Address: a},
			Type:         "required",
		})
	}

	payload := clients.EventRequest{
		Subject: ent.Title,
		Body: clients.ItemBody{
			ContentType: "HTML",
			Content: fmt.Sprintf(`<div style="font-family:Segoe UI,Arial,sans-serif">
  <p>Approved booking</p>
  <p><b>Title:</b> %s</p>
  <p><b>Customer:</b> %s (%s)</p>
</div>`, escapeHTML(ent.Title), escapeHTML(ent.CustomerName), escapeHTML(ent.CustomerEmail)),
		},
		Start:             clients.DateTimeTimeZone{DateTime: ent.Start.UTC().Format(utcDateTimeLayout), TimeZone: "UTC"},
		End:               clients.DateTimeTimeZone{DateTime: ent.End.UTC().Format(utcDateTimeLayout), TimeZone: "UTC"},
		Attendees:         attendees,
		ResponseRequested: true,
		TransactionID:     ent.ID.String(),
	}
	if ent.WantsTeams {
		payload.IsOnlineMeeting = true
		payload.OnlineMeetingProvider = "teamsForBusiness"
	}

	resp, err := rc.Graph.CreateEvent(ctx, ent.TargetExecUpn, payload)
	if err != nil && ent.WantsTeams {
		logger.ErrorLogger.Errorf("Teams creation failed for request %s, retrying without Teams: %v", ent.ID, err)
		payload.IsOnlineMeeting = false
		payload.OnlineMeetingProvider = ""
		resp, err = rc.Graph.CreateEvent(ctx, ent.TargetExecUpn, payload)
	}
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// ListRequests handles GET /requests: the owner's denormalized summaries.
func (rc *RequestController) ListRequests(c *gin.Context) {
	owner := c.Query("owner")
	if owner == "" {
		owner = request_models.DefaultOwnerUserID
	}
	summaries, err := rc.Store.ListByOwner(c.Request.Context(), owner)
	if err != nil {
		logger.ErrorLogger.Errorf("failed to list requests for %s: %v", owner, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if summaries == nil {
		summaries = []request_models.RequestSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"owner": owner, "requests": summaries})
}
