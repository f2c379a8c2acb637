package slots_controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookkeys/bookkeys/clients"
	"github.com/bookkeys/bookkeys/config"
	"github.com/bookkeys/bookkeys/logger"
	"github.com/bookkeys/bookkeys/utils/availability"
	"github.com/bookkeys/bookkeys/utils/metrics"
)

const utcDateTimeLayout = "2006-01-02T15:04:05"

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// SlotsController computes bookable windows for a public booking page by
// intersecting the busy/free views of every calendar the page checks.
type SlotsController struct {
	Graph clients.GraphClientWrapper
}

// NewSlotsController creates a new instance of SlotsController.
func NewSlotsController(graph clients.GraphClientWrapper) *SlotsController {
	return &SlotsController{Graph: graph}
}

type scheduleResponse struct {
	Value []struct {
		AvailabilityView string `json:"availabilityView"`
	} `json:"value"`
}

// GetSlots handles GET /book/:slug/slots?date=YYYY-MM-DD&duration=N.
func (sc *SlotsController) GetSlots(c *gin.Context) {
	metrics.Default.SlotQueries.Inc()

	slug := c.Param("slug")
	cfg, err := config.GetPageConfig(slug)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown booking page"})
		return
	}

	date := c.Query("date")
	if !dateRe.MatchString(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing date"})
		return
	}
	durationParam, _ := strconv.Atoi(c.DefaultQuery("duration", "30"))
	duration := availability.ClampDuration(durationParam)

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		logger.ErrorLogger.Errorf("invalid timezone %q for slug %s: %v", cfg.TimeZone, slug, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "service not configured"})
		return
	}

	now := time.Now()
	today := now.In(loc).Format("2006-01-02")
	if date < today {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date is in the past"})
		return
	}

	// Non-business days are rejected before any provider round trip.
	if availability.IsWeekend(date, loc) {
		c.JSON(http.StatusOK, gin.H{
			"slug": slug, "timeZone": cfg.TimeZone, "date": date,
			"duration": duration, "slots": []availability.Slot{},
		})
		return
	}

	windowStart, windowEnd, err := availability.BusinessWindow(date, cfg.BusinessHours.Start, cfg.BusinessHours.End, loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing date"})
		return
	}

	body, err := sc.Graph.GetSchedule(c.Request.Context(), cfg.SchedulerUpn, clients.ScheduleRequest{
		Schedules:                cfg.Calendars,
		StartTime:                clients.DateTimeTimeZone{DateTime: windowStart.Format(utcDateTimeLayout), TimeZone: "UTC"},
		EndTime:                  clients.DateTimeTimeZone{DateTime: windowEnd.Format(utcDateTimeLayout), TimeZone: "UTC"},
		AvailabilityViewInterval: availability.BlockMinutes,
	})
	if err != nil {
		var upstream *clients.UpstreamError
		if errors.As(err, &upstream) {
			logger.ErrorLogger.Errorf("getSchedule error: status=%d body=%s", upstream.StatusCode, upstream.Body)
			c.Data(upstream.StatusCode, "application/json", upstream.Body)
			return
		}
		logger.ErrorLogger.Errorf("getSchedule error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	var sched scheduleResponse
	if err := json.Unmarshal(body, &sched); err != nil {
		logger.ErrorLogger.Errorf("invalid getSchedule response: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "invalid provider response"})
		return
	}
	views := make([]string, 0, len(sched.Value))
	for _, v := range sched.Value {
		views = append(views, v.AvailabilityView)
	}

	combined := availability.Intersect(views)
	slots := availability.DeriveSlots(combined, windowStart, availability.BlockMinutes, duration, now.UTC())

	c.JSON(http.StatusOK, gin.H{
		"slug": slug, "timeZone": cfg.TimeZone, "date": date,
		"duration": duration, "slots": slots,
	})
}
