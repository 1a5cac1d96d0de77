package client

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	clockRe   = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*([AP]M)$`)
	secondsRe = regexp.MustCompile(`^(\d{1,2}:\d{2}):\d{2}$`)
	usDateRe  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

// ToSQLTime turns "06:18 PM" into "18:18" and "18:18:00" into "18:18".
// Anything else comes back trimmed but otherwise untouched.
func ToSQLTime(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := clockRe.FindStringSubmatch(raw); m != nil {
		hh, _ := strconv.Atoi(m[1])
		switch strings.ToUpper(m[3]) {
		case "PM":
			if hh != 12 {
				hh += 12
			}
		case "AM":
			if hh == 12 {
				hh = 0
			}
		}
		return fmt.Sprintf("%02d:%s", hh, m[2])
	}
	if m := secondsRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

// ToSQLDate turns "MM/DD/YYYY" into "YYYY-M-D" without zero padding.
func ToSQLDate(raw string) string {
	raw = strings.TrimSpace(raw)
	m := usDateRe.FindStringSubmatch(raw)
	if m == nil {
		return raw
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	return fmt.Sprintf("%s-%d-%d", m[3], month, day)
}
