package normalize

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// ParseSize converts a human readable size such as "1.2 GiB" or "700 MB"
// to bytes. Binary suffixes (KiB, MiB, ...) use powers of 1024 and decimal
// suffixes (kB, MB, ...) powers of 1000. The second return value is false
// when the text cannot be parsed, in which case the size is 0.
func ParseSize(text string) (int64, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, false
	}

	lower := strings.ToLower(s)
	for _, suffix := range []string{"bytes", "byte"} {
		if strings.HasSuffix(lower, suffix) {
			s = strings.TrimSpace(s[:len(s)-len(suffix)]) + " B"
			break
		}
	}

	n, err := humanize.ParseBytes(s)
	if err != nil || n > math.MaxInt64 {
		return 0, false
	}
	return int64(n), true
}
