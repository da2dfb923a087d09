package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The acceptance grammar for model replies. Kept deliberately in one
// place: a reply is either one of the two filename-line templates the
// prompt demands, or a JSON object matching BuildReplyJSONSchema. Replies
// with no identifiable date-like or category-like token fall through to
// KindUnrecognized so the pipeline can park the file for human review.

var (
	reFence     = regexp.MustCompile("(?s)```[a-zA-Z]*\n?(.*?)```")
	reLabel     = regexp.MustCompile(`(?i)^(file\s*name|filename|name|answer)\s*[:=]\s*`)
	reBullet    = regexp.MustCompile(`^[-*•>]\s+`)
	reExtSuffix = regexp.MustCompile(`(?i)\.(pdf|jpe?g|png)$`)

	reDocLine   = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})\s+[-–—]\s+(.+?)\s+[-–—]\s+(.+)$`)
	rePhotoLine = regexp.MustCompile(`^(\d{4})\s+[-–—]\s+(.+?)\s+[-–—]\s+(.+)$`)

	reJSONDate = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

// ParseReply maps a raw model reply onto a Classification. It never
// fails: anything outside the acceptance grammar becomes Unrecognized.
func ParseReply(raw string) Classification {
	cleaned := stripFences(raw)

	if c, ok := parseJSONReply(cleaned); ok {
		return c
	}

	for _, line := range strings.Split(cleaned, "\n") {
		candidate := cleanLine(line)
		if candidate == "" {
			continue
		}
		if c, ok := parseDocumentLine(candidate); ok {
			return c
		}
		if c, ok := parsePhotoLine(candidate); ok {
			return c
		}
	}

	return NewUnrecognized(strings.TrimSpace(raw))
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if m := reFence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

func cleanLine(line string) string {
	s := strings.TrimSpace(line)
	s = reLabel.ReplaceAllString(s, "")
	for {
		next := reBullet.ReplaceAllString(s, "")
		if next == s {
			break
		}
		s = next
	}
	s = strings.Trim(s, "\"'`")
	s = strings.TrimRight(s, ".!")
	s = reExtSuffix.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func parseDocumentLine(line string) (Classification, bool) {
	m := reDocLine.FindStringSubmatch(line)
	if m == nil {
		return Classification{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	date, ok := normalizeDate(year, month, day)
	if !ok {
		return Classification{}, false
	}
	return NewDocument(DocumentFields{
		Date:    date,
		Sender:  strings.TrimSpace(m[4]),
		Summary: strings.TrimSpace(m[5]),
	}), true
}

func parsePhotoLine(line string) (Classification, bool) {
	m := rePhotoLine.FindStringSubmatch(line)
	if m == nil {
		return Classification{}, false
	}
	year, _ := strconv.Atoi(m[1])
	if year != 0 && (year < 1000 || year > 2999) {
		return Classification{}, false
	}
	return NewPhoto(PhotoFields{
		Year:     year,
		Subject:  strings.TrimSpace(m[2]),
		Location: strings.TrimSpace(m[3]),
	}), true
}

// normalizeDate validates and formats a date token. All-zero components
// mean "unknown date" per the prompt contract; a known year with zero
// month/day is also treated as unknown rather than fabricating a date.
func normalizeDate(year, month, day int) (string, bool) {
	if month == 0 && day == 0 {
		return "", true
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	if year < 1000 || year > 2999 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

type jsonReply struct {
	Category string `json:"category"`
	Date     string `json:"date"`
	Sender   string `json:"sender"`
	Summary  string `json:"summary"`
	Year     int    `json:"year"`
	Subject  string `json:"subject"`
	Location string `json:"location"`
}

func parseJSONReply(s string) (Classification, bool) {
	obj := extractJSONObject(s)
	if !strings.HasPrefix(strings.TrimSpace(obj), "{") {
		return Classification{}, false
	}
	if err := ValidateJSONAgainstSchema(BuildReplyJSONSchema(), []byte(obj)); err != nil {
		return Classification{}, false
	}
	var r jsonReply
	if err := json.Unmarshal([]byte(obj), &r); err != nil {
		return Classification{}, false
	}

	switch {
	case strings.Contains(strings.ToLower(r.Category), "doc"):
		// Same date rules as the filename-line grammar: all-zero means
		// unknown, out-of-range components reject the reply.
		date := ""
		if trimmed := strings.TrimSpace(r.Date); trimmed != "" {
			m := reJSONDate.FindStringSubmatch(trimmed)
			if m == nil {
				return Classification{}, false
			}
			year, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			day, _ := strconv.Atoi(m[3])
			norm, ok := normalizeDate(year, month, day)
			if !ok {
				return Classification{}, false
			}
			date = norm
		}
		return NewDocument(DocumentFields{
			Date:    date,
			Sender:  strings.TrimSpace(r.Sender),
			Summary: strings.TrimSpace(r.Summary),
		}), true
	case strings.EqualFold(strings.TrimSpace(r.Category), "photo"):
		if r.Year != 0 && (r.Year < 1000 || r.Year > 2999) {
			return Classification{}, false
		}
		return NewPhoto(PhotoFields{
			Year:     r.Year,
			Subject:  strings.TrimSpace(r.Subject),
			Location: strings.TrimSpace(r.Location),
		}), true
	default:
		return Classification{}, false
	}
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
