package fileops

import (
	"encoding/hex"
	"os"
)

// statTarget checks that path names an existing regular entry.
//
// Any stat failure is reported as NotFound: permission errors on a parent
// directory are indistinguishable from absence for the caller.
func statTarget(path string) (os.FileInfo, error) {
	if path == "" {
		return nil, newInvalidParameters()
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, newNotFound(path, err)
	}
	if info.IsDir() {
		return nil, newIsDirectory(path)
	}
	return info, nil
}

// DecodeSignature parses a hex-encoded signature into raw bytes.
//
// ASCII whitespace between digit pairs is ignored ("de ad be ef" is valid);
// whitespace inside a pair, or any other byte, is rejected. An empty result
// is rejected too: an empty pattern matches everywhere.
func DecodeSignature(s string) ([]byte, error) {
	sig := make([]byte, 0, len(s)/2)
	for i := 0; i < len(s); {
		if isASCIISpace(s[i]) {
			i++
			continue
		}
		if i+2 > len(s) {
			return nil, newInvalidParameters()
		}
		b, err := hex.DecodeString(s[i : i+2])
		if err != nil {
			return nil, newInvalidParameters()
		}
		sig = append(sig, b[0])
		i += 2
	}

	if len(sig) == 0 {
		return nil, newInvalidParameters()
	}
	return sig, nil
}

func isASCIISpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
