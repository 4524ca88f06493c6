package services

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are tried in order: ISO first, then the Italian register form
var dateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006"}

// ParseDate parses a calendar date (YYYY-MM-DD or DD/MM/YYYY) as UTC midnight
func ParseDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or DD/MM/YYYY", dateStr)
}

// ParseOptionalDate parses a date, mapping blank input to nil
func ParseOptionalDate(dateStr string) (*time.Time, error) {
	if strings.TrimSpace(dateStr) == "" {
		return nil, nil
	}
	t, err := ParseDate(dateStr)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
