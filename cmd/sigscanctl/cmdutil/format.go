package cmdutil

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/marmos91/sigscan/internal/bytesize"
	"github.com/marmos91/sigscan/pkg/protocol"
)

func sortedKeys(resp protocol.Response) []string {
	keys := make([]string, 0, len(resp))
	for k := range resp {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatValue renders a decoded JSON value for a table cell. Lists are
// comma separated; an empty list shows as "-".
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		return val
	case []any:
		if len(val) == 0 {
			return "-"
		}
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = formatValue(item)
		}
		return strings.Join(parts, ", ")
	case []int64:
		if len(val) == 0 {
			return "-"
		}
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = strconv.FormatInt(item, 10)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(val)
	}
}

// parseDuration accepts a Go duration or a bare number of seconds.
func parseDuration(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("negative duration")
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration")
	}
	return d, nil
}

// FormatSize renders a byte count as a human-readable size.
func FormatSize(n int64) string {
	if n < 0 {
		return "-"
	}
	return bytesize.ByteSize(n).String()
}
