package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseHours parses an hour quantity written either as "H:MM" (the format
// used by the planning sheets) or as decimal hours ("8.5").
func ParseHours(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty hours value")
	}
	if h, m, ok := strings.Cut(s, ":"); ok {
		if strings.ContainsAny(s, "+-") {
			return 0, fmt.Errorf("invalid hours %q: H:MM values carry no sign", s)
		}
		hours, err := strconv.Atoi(h)
		if err != nil {
			return 0, fmt.Errorf("invalid hours %q: %w", s, err)
		}
		minutes, err := strconv.Atoi(m)
		if err != nil {
			return 0, fmt.Errorf("invalid minutes %q: %w", s, err)
		}
		if hours < 0 || minutes < 0 || minutes >= 60 {
			return 0, fmt.Errorf("invalid hours %q", s)
		}
		return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hours %q: %w", s, err)
	}
	return HoursToDuration(f), nil
}

// HoursToDuration converts decimal hours to a duration rounded to the minute.
func HoursToDuration(h float64) time.Duration {
	return time.Duration(math.Round(h*60)) * time.Minute
}

// FormatHours renders d as "H:MM", truncating to the minute.
func FormatHours(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	total := int64(d / time.Minute)
	return fmt.Sprintf("%s%d:%02d", sign, total/60, total%60)
}
