package request_controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookkeys/bookkeys/config"
	"github.com/bookkeys/bookkeys/utils/availability"
)

// BookRequestBody is the slug-scoped public booking form payload.
type BookRequestBody struct {
	Start               string   `json:"start"`
	Duration            int      `json:"duration"`
	Title               string   `json:"title"`
	Email               string   `json:"email"`
	AdditionalAttendees []string `json:"additionalAttendees"`
	WantsTeams          bool     `json:"wantsTeams"`
	Notes               string   `json:"notes"`
}

// BookRequest handles POST /book/:slug/request. It resolves the page config
// for the slug and maps the form onto the generic submit contract.
func (rc *RequestController) BookRequest(c *gin.Context) {
	slug := c.Param("slug")
	cfg, err := config.GetPageConfig(slug)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown booking page"})
		return
	}

	var body BookRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	startISO := strings.TrimSpace(body.Start)
	title := strings.TrimSpace(body.Title)
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if startISO == "" || title == "" || email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing start, title, or email"})
		return
	}

	start, err := time.Parse(time.RFC3339, startISO)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start time"})
		return
	}
	duration := availability.ClampDuration(body.Duration)
	end := start.Add(time.Duration(duration) * time.Minute)

	status, resp := rc.submit(c.Request.Context(), SubmitRequestBody{
		Slug:         slug,
		ExecEmail:    cfg.SchedulerUpn,
		Title:        title,
		Start:        start.UTC().Format(time.RFC3339),
		End:          end.UTC().Format(time.RFC3339),
		WantsTeams:   body.WantsTeams,
		Customer:     customerBody{Name: email, Email: email},
		Attendees:    body.AdditionalAttendees,
		Notes:        body.Notes,
		TimeZone:     cfg.TimeZone,
		AllMailboxes: cfg.Calendars,
	})
	c.JSON(status, resp)
}
