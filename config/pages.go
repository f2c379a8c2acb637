package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// BusinessHours is a local wall-clock range in "HH:MM" form.
type BusinessHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// PageConfig describes one public booking page: which scheduler identity
// queries the calendars, which mailboxes must all be free, and the civil
// timezone the business hours are expressed in.
type PageConfig struct {
	Slug          string        `json:"slug"`
	SchedulerUpn  string        `json:"schedulerUpn"`
	Calendars     []string      `json:"calendars"`
	TimeZone      string        `json:"timeZone"`
	BusinessHours BusinessHours `json:"businessHours"`
}

// parsePagesJSON reads the PAGES_JSON environment variable, a map of
// slug -> page config. Example:
//
//	{"exec-a": {"schedulerUpn": "exec-a@example.com",
//	            "calendars": ["exec-a@example.com", "room-1@example.com"],
//	            "timeZone": "America/New_York",
//	            "businessHours": {"start": "09:00", "end": "17:00"}}}
func parsePagesJSON() (map[string]PageConfig, error) {
	raw := strings.TrimSpace(os.Getenv("PAGES_JSON"))
	if raw == "" {
		return map[string]PageConfig{}, nil
	}
	var pages map[string]PageConfig
	if err := json.Unmarshal([]byte(raw), &pages); err != nil {
		return nil, fmt.Errorf("invalid PAGES_JSON: %w", err)
	}
	return pages, nil
}

func validatePageConfig(slug string, cfg PageConfig) (PageConfig, error) {
	cfg.Slug = slug
	cfg.SchedulerUpn = strings.ToLower(strings.TrimSpace(cfg.SchedulerUpn))

	calendars := make([]string, 0, len(cfg.Calendars))
	for _, c := range cfg.Calendars {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			calendars = append(calendars, c)
		}
	}
	cfg.Calendars = calendars

	if strings.TrimSpace(cfg.TimeZone) == "" {
		cfg.TimeZone = "America/New_York"
	}
	if cfg.BusinessHours.Start == "" {
		cfg.BusinessHours.Start = "09:00"
	}
	if cfg.BusinessHours.End == "" {
		cfg.BusinessHours.End = "17:00"
	}

	if cfg.SchedulerUpn == "" {
		return cfg, fmt.Errorf("schedulerUpn missing for slug '%s'", slug)
	}
	if len(cfg.Calendars) == 0 {
		return cfg, fmt.Errorf("calendars missing for slug '%s'", slug)
	}
	return cfg, nil
}

// GetPageConfig returns the validated config for one booking page slug.
func GetPageConfig(slug string) (PageConfig, error) {
	pages, err := parsePagesJSON()
	if err != nil {
		return PageConfig{}, err
	}
	cfg, ok := pages[slug]
	if !ok {
		return PageConfig{}, fmt.Errorf("missing config for slug '%s'", slug)
	}
	return validatePageConfig(slug, cfg)
}

// GetAllPages returns every valid page config, skipping invalid entries.
func GetAllPages() []PageConfig {
	pages, err := parsePagesJSON()
	if err != nil {
		return nil
	}
	out := make([]PageConfig, 0, len(pages))
	for slug, cfg := range pages {
		valid, err := validatePageConfig(slug, cfg)
		if err != nil {
			continue
		}
		out = append(out, valid)
	}
	return out
}
