// Package envelope defines the request envelope read from an adapter's
// stdin and the response document written to its stdout.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// UnsupportedFunction is the error_message returned when function_name does
// not name a registered function.
const UnsupportedFunction = "Unsupported function"

// ErrMalformed marks a request envelope that cannot be routed: invalid JSON,
// a missing function_name or params member, or a non-string function_name.
var ErrMalformed = errors.New("malformed request envelope")

// Request is the envelope naming the function to call and its raw params.
type Request struct {
	FunctionName string          `json:"function_name"`
	Params       json.RawMessage `json:"params"`
}

// Decode parses a request envelope. Params stays raw until the function name
// has been resolved.
func Decode(data []byte) (Request, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Request{}, fmt.Errorf("%w: empty input", ErrMalformed)
	}
	if trimmed[0] != '{' {
		return Request{}, fmt.Errorf("%w: expected a JSON object", ErrMalformed)
	}
	// Members are looked up by exact name; encoding/json struct tags would
	// also accept "Function_Name" or "PARAMS".
	var members map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &members); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	rawName, ok := members["function_name"]
	if !ok {
		return Request{}, fmt.Errorf("%w: missing field `function_name`", ErrMalformed)
	}
	var name string
	if err := json.Unmarshal(rawName, &name); err != nil || IsNull(rawName) {
		return Request{}, fmt.Errorf("%w: `function_name` must be a string", ErrMalformed)
	}
	params, ok := members["params"]
	if !ok {
		return Request{}, fmt.Errorf("%w: missing field `params`", ErrMalformed)
	}
	return Request{FunctionName: name, Params: params}, nil
}

// IsNull reports whether raw is absent or the JSON literal null.
func IsNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Status is the outcome reported in a Response.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Response is the document written to stdout. Data and ErrorMessage are
// always serialized; exactly one of them is non-null.
type Response struct {
	Status       Status          `json:"status"`
	Data         json.RawMessage `json:"data"`
	ErrorMessage *string         `json:"error_message"`
}

// Success wraps an already encoded result value.
func Success(data json.RawMessage) Response {
	return Response{Status: StatusSuccess, Data: data}
}

// Failure builds an error response carrying message.
func Failure(message string) Response {
	return Response{Status: StatusError, ErrorMessage: &message}
}

// Validate checks that status agrees with which of data and error_message
// is present.
func (r Response) Validate() error {
	switch r.Status {
	case StatusSuccess:
		if IsNull(r.Data) {
			return errors.New("success response without data")
		}
		if r.ErrorMessage != nil {
			return errors.New("success response carries an error_message")
		}
	case StatusError:
		if !IsNull(r.Data) {
			return errors.New("error response carries data")
		}
		if r.ErrorMessage == nil {
			return errors.New("error response without error_message")
		}
	default:
		return fmt.Errorf("unknown status %q", r.Status)
	}
	return nil
}

// Encode writes r as a single JSON line.
func (r Response) Encode(w io.Writer) error {
	if IsNull(r.Data) {
		r.Data = nil
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}

// DecodeResponse parses and validates a response document.
func DecodeResponse(data []byte) (Response, error) {
	var r Response
	if err := json.Unmarshal(bytes.TrimSpace(data), &r); err != nil {
		return Response{}, fmt.Errorf("invalid response json: %w", err)
	}
	if err := r.Validate(); err != nil {
		return Response{}, fmt.Errorf("invalid response: %w", err)
	}
	if IsNull(r.Data) {
		r.Data = nil
	}
	return r, nil
}
