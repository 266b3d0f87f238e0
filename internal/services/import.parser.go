package services

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/nimasrn/service-reminders/internal/model"
)

const (
	minPhoneDigits = 10
	minVehicleYear = 1900
	maxVehicleYear = 2100
)

var shopIndicators = []string{"full name", "vin code", "year/make/model"}

// splitLines strips a UTF-8 BOM, normalizes line endings and drops blank lines.
func splitLines(raw string) []string {
	text := strings.TrimPrefix(raw, "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// parseCSVLine splits on commas; a double quote toggles a mode where commas are literal.
// Quotes themselves are dropped and there is no escaping.
func parseCSVLine(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(fields, current.String())
}

func normalizeHeaders(fields []string) []string {
	headers := make([]string, len(fields))
	for i, h := range fields {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return headers
}

func detectFormat(headers []string) model.ImportFormat {
	for _, h := range headers {
		for _, indicator := range shopIndicators {
			if h == indicator {
				return model.ImportFormatShop
			}
		}
	}
	return model.ImportFormatStandard
}

// NormalizePhone keeps digits only and drops a leading US country code from 11-digit numbers.
func NormalizePhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if len(digits) == 11 && digits[0] == '1' {
		return digits[1:]
	}
	return digits
}

func validPhone(phone string) bool {
	return len(phone) >= minPhoneDigits
}

// row reads trimmed cells by header name; missing cells read as empty strings.
type row struct {
	headers []string
	cells   []string
}

func (r row) get(names ...string) string {
	for _, name := range names {
		for i, h := range r.headers {
			if h != name || i >= len(r.cells) {
				continue
			}
			if v := strings.TrimSpace(r.cells[i]); v != "" {
				return v
			}
		}
	}
	return ""
}

func parseFullName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "Unknown", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

type vehicleInfo struct {
	year  int
	make  string
	model string
}

// parseYearMakeModel reads "2020 Toyota Camry"; anything unparseable yields nil.
func parseYearMakeModel(combined string) *vehicleInfo {
	parts := strings.Fields(combined)
	if len(parts) < 3 {
		return nil
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < minVehicleYear || year > maxVehicleYear {
		return nil
	}
	return &vehicleInfo{year: year, make: parts[1], model: strings.Join(parts[2:], " ")}
}

// parseMileage keeps the digits of a free-form mileage such as "45,000 mi".
func parseMileage(s string) *int {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return nil
	}
	v, err := strconv.Atoi(digits)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// parseLeadingInt reads the leading digits of s, as spreadsheets often append units.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	return v, err == nil
}

var serviceDateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"2006/01/02",
	time.RFC3339,
}

func parseServiceDate(s string) (time.Time, bool) {
	for _, layout := range serviceDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var serviceKeywords = []struct {
	serviceType string
	keywords    []string
}{
	{"oil_change", []string{"oil change", "oil filter", "5w"}},
	{"tire_rotation", []string{"tire rotation", "rotate"}},
	{"state_inspection", []string{"inspection"}},
	{"brake_service", []string{"brake"}},
	{"transmission", []string{"transmission"}},
}

const defaultServiceType = "oil_change"

// inferServiceType maps a free-text repair description onto a service type name.
func inferServiceType(description string) string {
	lower := strings.ToLower(description)
	for _, st := range serviceKeywords {
		for _, kw := range st.keywords {
			if strings.Contains(lower, kw) {
				return st.serviceType
			}
		}
	}
	return defaultServiceType
}
