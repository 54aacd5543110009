package importer

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// excelEpoch is day zero of the 1900 date system as used by Excel and LibreOffice
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// maxExcelSerial is 9999-12-31
const maxExcelSerial = 2958465

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 -07:00",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
	"2.1.2006",
}

// NormalizeDate converts ISO strings, export timestamps and Excel serial days into
// RFC 3339 UTC. Values that cannot be parsed are returned unchanged.
func NormalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t, ok := ParseDate(value); ok {
		return t.Format(time.RFC3339)
	}
	return value
}

// ParseDate parses any of the supported date representations into a UTC instant
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		return fromExcelSerial(serial)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func fromExcelSerial(serial float64) (time.Time, bool) {
	if serial <= 0 || serial > maxExcelSerial || math.IsNaN(serial) {
		return time.Time{}, false
	}
	days := math.Floor(serial)
	seconds := math.Round((serial - days) * 86400)
	t := excelEpoch.AddDate(0, 0, int(days)).Add(time.Duration(seconds) * time.Second)
	return t, true
}
