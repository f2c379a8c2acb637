package request_controller

import (
	"fmt"
	"html"
	"html/template"

	"github.com/gin-gonic/gin"
)

// htmlPage writes a minimal standalone status page for approval-link flows.
func htmlPage(c *gin.Context, status int, title, body string) {
	page := fmt.Sprintf(
		`<!doctype html><html><head><meta charset="utf-8"><title>%s</title></head><body style="font-family:Segoe UI,Arial,sans-serif">%s</body></html>`,
		html.EscapeString(title), body)
	c.Data(status, "text/html; charset=utf-8", []byte(page))
}

func escapeHTML(s string) string {
	return html.EscapeString(s)
}

// safeURL marks a server-built URL as safe for template interpolation.
func safeURL(u string) template.URL {
	return template.URL(u)
}
