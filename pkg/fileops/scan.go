package fileops

import (
	"bytes"
	"context"
	"os"
)

// FindAll returns every offset at which sig occurs in content, ascending.
//
// Overlapping matches are reported: after a hit at i the search resumes
// at i+1, so FindAll("AAAA", "AA") is [0 1 2]. The result is never nil.
func FindAll(content, sig []byte) []int64 {
	offsets := make([]int64, 0)
	if len(sig) == 0 {
		return offsets
	}

	base := 0
	for base <= len(content)-len(sig) {
		i := bytes.Index(content[base:], sig)
		if i < 0 {
			break
		}
		offsets = append(offsets, int64(base+i))
		base += i + 1
	}
	return offsets
}

// ScanRequest holds the raw parameters of a signature scan.
type ScanRequest struct {
	FilePath  string
	Signature string
}

// ScanFile validates req, reads the whole file and returns the offsets of
// every occurrence of the decoded signature.
//
// Validation order is fixed: missing parameters or a bad signature, then a
// missing path, then a directory path.
func ScanFile(ctx context.Context, req ScanRequest) ([]int64, error) {
	if req.FilePath == "" || req.Signature == "" {
		return nil, newInvalidParameters()
	}
	sig, err := DecodeSignature(req.Signature)
	if err != nil {
		return nil, err
	}

	if _, err := statTarget(req.FilePath); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, newIOError(req.FilePath, err)
	}

	content, err := os.ReadFile(req.FilePath)
	if err != nil {
		return nil, newIOError(req.FilePath, err)
	}

	return FindAll(content, sig), nil
}
