package pages_controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookkeys/bookkeys/config"
)

// PagesController serves the public metadata of the configured booking pages
// so a front-end can render slug pickers and business-hours hints. Scheduler
// identities and calendar lists stay server-side.
type PagesController struct{}

// NewPagesController creates a new instance of PagesController.
func NewPagesController() *PagesController {
	return &PagesController{}
}

type publicPage struct {
	Slug          string               `json:"slug"`
	TimeZone      string               `json:"timeZone"`
	BusinessHours config.BusinessHours `json:"businessHours"`
}

// ListPages handles GET /book/pages: every valid booking page, invalid
// entries skipped.
func (pc *PagesController) ListPages(c *gin.Context) {
	pages := config.GetAllPages()
	out := make([]publicPage, 0, len(pages))
	for _, p := range pages {
		out = append(out, publicPage{
			Slug:          p.Slug,
			TimeZone:      p.TimeZone,
			BusinessHours: p.BusinessHours,
		})
	}
	c.JSON(http.StatusOK, gin.H{"pages": out})
}
