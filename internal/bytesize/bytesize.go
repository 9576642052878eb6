// Package bytesize parses and formats human-readable byte sizes such as
// "4KiB", "64k" or "1MB" for configuration values.
package bytesize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ByteSize is a size in bytes.
//
// Accepted input forms:
//   - plain integers: 4096
//   - binary units (x1024): Ki/KiB, Mi/MiB, Gi/GiB
//   - decimal units (x1000): K/KB, M/MB, G/GB
//   - explicit bytes: B
//
// Units are case-insensitive. Fractions are rejected: buffer sizes must be
// whole byte counts.
type ByteSize uint64

const (
	B  ByteSize = 1
	KB ByteSize = 1000
	MB ByteSize = 1000 * KB
	GB ByteSize = 1000 * MB

	KiB ByteSize = 1024
	MiB ByteSize = 1024 * KiB
	GiB ByteSize = 1024 * MiB
)

var units = map[string]ByteSize{
	"":    B,
	"b":   B,
	"k":   KB,
	"kb":  KB,
	"m":   MB,
	"mb":  MB,
	"g":   GB,
	"gb":  GB,
	"ki":  KiB,
	"kib": KiB,
	"mi":  MiB,
	"mib": MiB,
	"gi":  GiB,
	"gib": GiB,
}

// Parse converts s into a ByteSize.
func Parse(s string) (ByteSize, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	split := strings.IndexFunc(trimmed, func(r rune) bool { return r < '0' || r > '9' })
	if split == 0 {
		return 0, fmt.Errorf("invalid byte size %q: must start with a number", s)
	}
	digits, suffix := trimmed, ""
	if split > 0 {
		digits, suffix = trimmed[:split], strings.TrimSpace(trimmed[split:])
	}

	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}

	mult, ok := units[strings.ToLower(suffix)]
	if !ok {
		return 0, fmt.Errorf("invalid byte size %q: unknown unit %q", s, suffix)
	}
	if n > math.MaxUint64/uint64(mult) {
		return 0, fmt.Errorf("invalid byte size %q: overflows uint64", s)
	}

	return ByteSize(n) * mult, nil
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(s string) ByteSize {
	b, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return b
}

// String formats b with the largest binary unit that divides it exactly,
// so that Parse(b.String()) == b.
func (b ByteSize) String() string {
	switch {
	case b == 0:
		return "0B"
	case b%GiB == 0:
		return strconv.FormatUint(uint64(b/GiB), 10) + "GiB"
	case b%MiB == 0:
		return strconv.FormatUint(uint64(b/MiB), 10) + "MiB"
	case b%KiB == 0:
		return strconv.FormatUint(uint64(b/KiB), 10) + "KiB"
	default:
		return strconv.FormatUint(uint64(b), 10) + "B"
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *ByteSize) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// MarshalText implements encoding.TextMarshaler, producing the String form.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Int returns b as an int, clamping to math.MaxInt.
func (b ByteSize) Int() int {
	if uint64(b) > math.MaxInt {
		return math.MaxInt
	}
	return int(b)
}

// Uint64 returns b as a uint64.
func (b ByteSize) Uint64() uint64 {
	return uint64(b)
}
