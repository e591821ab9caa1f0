package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpguard/fnadapter/internal/client"
	"github.com/mcpguard/fnadapter/internal/dispatch"
	"github.com/mcpguard/fnadapter/internal/envelope"
	"github.com/mcpguard/fnadapter/internal/hash"
	"github.com/mcpguard/fnadapter/internal/wire"
)

const helperEnv = "FNADAPTER_CMD_HELPER"

type hashParams struct {
	Seed  int32      `json:"seed"`
	Input wire.Bytes `json:"input"`
}

// TestHelperProcess acts as a hash adapter when re-executed by the call tests.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}
	d := dispatch.New()
	dispatch.Register(d, "hash", func(p hashParams) int32 { return hash.Sum(p.Input, p.Seed) })
	if err := d.Run(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func callArgs(extra ...string) []string {
	return append([]string{"call", "--adapter", os.Args[0], "--adapter-arg=-test.run=^TestHelperProcess$"}, extra...)
}

func TestGenToStdout(t *testing.T) {
	out, err := run(t, "gen", "--signature", filepath.Join("..", "hash-adapter", "hash.yaml"))
	require.NoError(t, err)

	want, err := os.ReadFile(filepath.Join("..", "hash-adapter", "main.go"))
	require.NoError(t, err)
	assert.Equal(t, string(want), out)
}

func TestGenToFile(t *testing.T) {
	dir := t.TempDir()
	sig := filepath.Join(dir, "add.json")
	require.NoError(t, os.WriteFile(sig, []byte(`{"function":"add","import":"example.com/math","call":"math.Add","returns":"long","args":[{"name":"a","type":"long"},{"name":"b","type":"long"}]}`), 0o644))
	out := filepath.Join(dir, "main.go")

	stdout, err := run(t, "gen", "--signature", sig, "--out", out)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	src, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(src), "return math.Add(p.A, p.B)")
	assert.Contains(t, string(src), `cli.Execute("add-adapter"`)
}

func TestGenRequiresSignature(t *testing.T) {
	_, err := run(t, "gen")
	assert.Error(t, err)
}

func TestCallSuccess(t *testing.T) {
	t.Setenv(helperEnv, "1")
	out, err := run(t, callArgs("--function", "hash", "--params", `{"seed":42,"input":[1,2,3]}`)...)
	require.NoError(t, err)

	resp, err := envelope.DecodeResponse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, envelope.StatusSuccess, resp.Status)
	assert.Equal(t, fmt.Sprint(hash.Sum([]byte{1, 2, 3}, 42)), string(resp.Data))
}

func TestCallErrorResponse(t *testing.T) {
	t.Setenv(helperEnv, "1")
	out, err := run(t, callArgs("--function", "nope")...)
	var remote *client.RemoteError
	require.True(t, errors.As(err, &remote), "got %v", err)
	assert.Equal(t, envelope.UnsupportedFunction, remote.Message)
	assert.True(t, strings.HasPrefix(out, `{"status":"error"`))
}

func TestCallInvalidParams(t *testing.T) {
	_, err := run(t, callArgs("--function", "hash", "--params", `{"seed":`)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--params")
}
