package protocol

import (
	"errors"
	"io"
)

// ReadRequest performs the server's single bounded read into buf and
// returns the bytes received.
//
// A request larger than buf is truncated and will normally fail to decode;
// there is no second read. A read of zero bytes means the peer closed
// without sending and is reported as io.EOF.
func ReadRequest(r io.Reader, buf []byte) ([]byte, error) {
	n, err := r.Read(buf)
	if n > 0 {
		// Data wins over a simultaneous EOF.
		return buf[:n], nil
	}
	if err == nil {
		err = io.EOF
	}
	return nil, err
}

// ReadResponse reads a response using short-read-terminates framing: it
// keeps reading chunks of up to bufSize bytes and stops after the first
// chunk strictly shorter than bufSize.
//
// A response whose length is an exact multiple of bufSize is followed by a
// read that only returns when the server closes the connection (which it
// always does after responding) or the reader's deadline expires. Callers
// that need a bound must set a deadline on the underlying connection.
func ReadResponse(r io.Reader, bufSize int) ([]byte, error) {
	if bufSize <= 0 {
		return nil, errors.New("buffer size must be positive")
	}

	chunk := make([]byte, bufSize)
	var data []byte
	for {
		n, err := io.ReadAtLeast(r, chunk, 1)
		data = append(data, chunk[:n]...)

		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return data, nil
			}
			return data, err
		}
		if n < bufSize {
			return data, nil
		}
	}
}
