// Package protocol defines the sigscan wire format.
//
// A client opens a TCP connection, writes one JSON object and reads one
// JSON object back; the server then closes the connection.
//
//	request:  {"command1": "CheckLocalFile", "params": {"file_path": "...", "signature": "..."}}
//	response: {"Offsets:": [0, 4]}
//
// There is no length prefix. The server performs a single bounded read, and
// the client reads until it receives a chunk shorter than its buffer (see
// ReadResponse).
//
// Response keys are not uniform across outcomes. Validation failures use
// "Error:" (with a colon), I/O failures use "Error", and protocol-level
// failures use lowercase "error". Existing clients match on these exact
// keys, so they are kept verbatim.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Commands understood by the server.
const (
	CmdCheckLocalFile      = "CheckLocalFile"
	CmdQuarantineLocalFile = "QuarantineLocalFile"
)

// Request field names.
const (
	FieldCommand = "command1"
	FieldParams  = "params"
)

// Parameter names used by the built-in commands.
const (
	ParamFilePath  = "file_path"
	ParamSignature = "signature"
)

// Response keys.
const (
	KeyOffsets         = "Offsets:"
	KeyStatus          = "Status"
	KeyValidationError = "Error:"
	KeyIOError         = "Error"
	KeyError           = "error"
)

// Fixed response messages.
const (
	MsgQuarantined     = "File replaced to quarantine."
	MsgUnknownCommand  = "Unknown command"
	MsgInvalidJSON     = "Invalid JSON"
	MsgConnectionError = "Connection error"
	MsgUnexpectedError = "Unexpected error"
)

// ErrInvalidJSON is returned by DecodeRequest when the payload is not a
// JSON object.
var ErrInvalidJSON = errors.New("invalid JSON request")

// Request is a decoded command.
type Request struct {
	Command string
	Params  map[string]string
}

// NewRequest builds a request with a non-nil Params map.
func NewRequest(command string, params map[string]string) Request {
	if params == nil {
		params = map[string]string{}
	}
	return Request{Command: command, Params: params}
}

// Param returns the named parameter, or "" if absent.
func (r Request) Param(name string) string {
	return r.Params[name]
}

// MarshalJSON encodes the request using the wire field names.
func (r Request) MarshalJSON() ([]byte, error) {
	params := r.Params
	if params == nil {
		params = map[string]string{}
	}
	return json.Marshal(struct {
		Command string            `json:"command1"`
		Params  map[string]string `json:"params"`
	}{r.Command, params})
}

// DecodeRequest parses a request payload.
//
// The payload must be a JSON object. Only "command1" names the command; a
// command that is missing or not a string decodes as "" and is later
// rejected as unknown. Params that are
// missing, null or not an object decode as empty; non-string parameter
// values are dropped.
func DecodeRequest(data []byte) (Request, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if raw == nil {
		// Literal null.
		return Request{}, fmt.Errorf("%w: not an object", ErrInvalidJSON)
	}

	req := NewRequest("", nil)

	if cmdRaw := raw[FieldCommand]; cmdRaw != nil {
		_ = json.Unmarshal(cmdRaw, &req.Command)
	}

	if paramsRaw, ok := raw[FieldParams]; ok {
		var params map[string]any
		if err := json.Unmarshal(paramsRaw, &params); err == nil {
			for k, v := range params {
				if s, ok := v.(string); ok {
					req.Params[k] = s
				}
			}
		}
	}

	return req, nil
}

// Response is a command result. Its keys depend on the command and outcome.
type Response map[string]any

// Offsets builds a successful scan response. A nil slice encodes as [].
func Offsets(offsets []int64) Response {
	if offsets == nil {
		offsets = []int64{}
	}
	return Response{KeyOffsets: offsets}
}

// Quarantined builds a successful quarantine response.
func Quarantined() Response {
	return Response{KeyStatus: MsgQuarantined}
}

// ValidationError builds an "Error:" response.
func ValidationError(msg string) Response {
	return Response{KeyValidationError: msg}
}

// IOError builds an "Error" response carrying an OS error message.
func IOError(msg string) Response {
	return Response{KeyIOError: msg}
}

// Error builds a lowercase "error" response used for protocol failures.
func Error(msg string) Response {
	return Response{KeyError: msg}
}

// UnknownCommand is the response for unrecognized commands.
func UnknownCommand() Response { return Error(MsgUnknownCommand) }

// InvalidJSON is the response for undecodable requests.
func InvalidJSON() Response { return Error(MsgInvalidJSON) }

// ConnectionError is the client-side response for transport failures.
func ConnectionError() Response { return Error(MsgConnectionError) }

// UnexpectedError is the response for any other failure.
func UnexpectedError() Response { return Error(MsgUnexpectedError) }

// ErrorMessage returns the message under any of the error keys, and whether
// the response is an error at all.
func (r Response) ErrorMessage() (string, bool) {
	for _, k := range []string{KeyError, KeyValidationError, KeyIOError} {
		if v, ok := r[k]; ok {
			s, _ := v.(string)
			return s, true
		}
	}
	return "", false
}

// Encode serializes a response. HTML characters are not escaped and no
// trailing newline is written.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// DecodeResponse parses a response payload.
func DecodeResponse(data []byte) (Response, error) {
	var resp Response
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&resp); err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("response is not a JSON object")
	}
	return resp, nil
}
