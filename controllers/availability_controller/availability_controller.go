package availability_controller

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookkeys/bookkeys/clients"
	"github.com/bookkeys/bookkeys/logger"
)

const dateTimeLayout = "2006-01-02T15:04:05"

// AvailabilityController proxies raw busy/free queries to the calendar
// provider. Successful provider JSON is returned verbatim; provider failures
// propagate status and body.
type AvailabilityController struct {
	Graph clients.GraphClientWrapper
}

// NewAvailabilityController creates a new instance of AvailabilityController.
func NewAvailabilityController(graph clients.GraphClientWrapper) *AvailabilityController {
	return &AvailabilityController{Graph: graph}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetAvailability handles GET /availability?schedules,start,end,interval.
func (ac *AvailabilityController) GetAvailability(c *gin.Context) {
	schedules := splitList(c.Query("schedules"))
	if len(schedules) == 0 {
		schedules = splitList(os.Getenv("AVAILABILITY_SCHEDULES"))
	}
	if len(schedules) == 0 {
		logger.ErrorLogger.Error("AVAILABILITY_SCHEDULES is empty")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "service not configured"})
		return
	}

	tz := os.Getenv("AVAILABILITY_TIMEZONE")
	if tz == "" {
		tz = "Eastern Standard Time"
	}

	userUpn := os.Getenv("SCHEDULER_UPN")
	if userUpn == "" {
		userUpn = schedules[0]
	}

	now := time.Now()
	start := c.Query("start")
	if start == "" {
		start = time.Date(now.Year(), now.Month(), now.Day(), 8, 0, 0, 0, time.UTC).Format(dateTimeLayout)
	}
	end := c.Query("end")
	if end == "" {
		end = now.Add(24 * time.Hour).UTC().Format(dateTimeLayout)
	}
	interval, _ := strconv.Atoi(c.DefaultQuery("interval", "15"))
	if interval <= 0 {
		interval = 15
	}

	body, err := ac.Graph.GetSchedule(c.Request.Context(), userUpn, clients.ScheduleRequest{
		Schedules:                schedules,
		StartTime:                clients.DateTimeTimeZone{DateTime: start, TimeZone: tz},
		EndTime:                  clients.DateTimeTimeZone{DateTime: end, TimeZone: tz},
		AvailabilityViewInterval: interval,
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

	c.Data(http.StatusOK, "application/json", body)
}
