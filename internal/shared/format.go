package shared

import (
	"math"
	"strconv"
	"time"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders a byte count with binary-prefix scaling, keeping at most two decimals
// (1536 → "1.5 KB"). Sizes beyond the largest unit stay in GB.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}

	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	i = min(i, len(sizeUnits)-1)

	v := float64(bytes) / math.Pow(1024, float64(i))
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

const (
	dateLayout     = "Jan 2, 2006 3:04:05 PM"
	dateTimeLayout = "1/2/2006, 3:04:05 PM"
)

// FormatDate renders t in the local zone using a locale-style date and time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateLayout)
}

// FormatDateTime renders t in the local zone in the compact numeric form used for execution history.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateTimeLayout)
}
