// Package client calls an adapter binary: it spawns the process, writes a
// request envelope to its stdin and reads the response document from stdout.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/mcpguard/fnadapter/internal/envelope"
)

// RemoteError is an error response returned by the adapter.
type RemoteError struct {
	Function string
	Message  string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Function, e.Message)
}

type Runner struct {
	Bin            string
	Args           []string
	Env            []string // nil inherits the caller's environment
	DefaultTimeout time.Duration
}

func NewRunner(bin string, args ...string) *Runner {
	return &Runner{
		Bin:            bin,
		Args:           args,
		DefaultTimeout: 60 * time.Second,
	}
}

// Do sends req and returns the adapter's response. A non-zero exit, an empty
// stdout or an invalid response document is an error.
func (r *Runner) Do(ctx context.Context, req envelope.Request) (envelope.Response, error) {
	if r == nil {
		return envelope.Response{}, fmt.Errorf("runner is nil")
	}
	if strings.TrimSpace(r.Bin) == "" {
		return envelope.Response{}, fmt.Errorf("adapter binary path is empty")
	}
	if req.Params == nil {
		req.Params = json.RawMessage(`{}`)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return envelope.Response{}, fmt.Errorf("marshal request: %w", err)
	}

	timeout := r.DefaultTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.Bin, r.Args...)
	cmd.Env = r.Env
	cmd.Stdin = bytes.NewReader(payload)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return envelope.Response{}, fmt.Errorf("adapter process failed: %w; stderr=%s", err, strings.TrimSpace(stderr.String()))
	}

	raw := bytes.TrimSpace(stdout.Bytes())
	if len(raw) == 0 {
		return envelope.Response{}, fmt.Errorf("empty adapter stdout; stderr=%s", strings.TrimSpace(stderr.String()))
	}

	resp, err := envelope.DecodeResponse(raw)
	if err != nil {
		return envelope.Response{}, fmt.Errorf("%w; raw=%s", err, raw)
	}
	return resp, nil
}

// Call invokes function with params and decodes the result into out, which
// may be nil. An error response is returned as *RemoteError.
func (r *Runner) Call(ctx context.Context, function string, params any, out any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	resp, err := r.Do(ctx, envelope.Request{FunctionName: function, Params: raw})
	if err != nil {
		return err
	}
	if resp.Status == envelope.StatusError {
		return &RemoteError{Function: function, Message: *resp.ErrorMessage}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("decode %s result: %w", function, err)
	}
	return nil
}
