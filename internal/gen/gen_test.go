package gen

import (
	"bytes"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hashSignature() *Signature {
	return &Signature{
		Function: "hash",
		Import:   "github.com/mcpguard/fnadapter/internal/hash",
		Call:     "hash.Sum",
		Returns:  "int",
		Args: []Arg{
			{Name: "input", Type: "byte[]"},
			{Name: "seed", Type: "int"},
		},
		Source: "hash.yaml",
	}
}

func TestGoType(t *testing.T) {
	cases := map[string]string{
		"int":       "int32",
		"long":      "int64",
		"byte":      "int8",
		"boolean":   "bool",
		"String":    "string",
		"double":    "float64",
		"byte[]":    WireBytes,
		"Vec<u8>":   WireBytes,
		"&[u8]":     WireBytes,
		"[]byte":    WireBytes,
		"int[]":     "[]int32",
		"String[]":  "[]string",
		"byte[][]":  "[]" + WireBytes,
		"Vec<i64>":  "[]int64",
		"Vec<bool>": "[]bool",
		"&[f32]":    "[]float32",
		"u32":       "uint32",
		"&str":      "string",
		"[]string":  "[]string",
		" int32 ":   "int32",
	}
	for declared, want := range cases {
		got, err := GoType(declared)
		require.NoError(t, err, declared)
		assert.Equal(t, want, got, declared)
	}

	for _, bad := range []string{"", "char", "Map<String,Integer>", "Vec<>", "[]", "Object"} {
		_, err := GoType(bad)
		assert.Error(t, err, bad)
	}
}

func TestFieldName(t *testing.T) {
	assert.Equal(t, "Seed", fieldName("seed"))
	assert.Equal(t, "MaxLen", fieldName("max_len"))
	assert.Equal(t, "Input", fieldName("Input"))
	assert.Equal(t, "X1", fieldName("_1"))
}

func TestGenerateHash(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, hashSignature()))
	src := buf.String()

	assert.Contains(t, src, "// Code generated by fnadapter gen from hash.yaml; DO NOT EDIT.")
	assert.Contains(t, src, "Input wire.Bytes `json:\"input\"`")
	assert.Contains(t, src, "Seed  int32      `json:\"seed\"`")
	assert.Contains(t, src, `cli.Execute("hash-adapter", func(d *dispatch.Dispatcher) {`)
	assert.Contains(t, src, `dispatch.Register(d, "hash", func(p params) int32 {`)
	assert.Contains(t, src, "return hash.Sum(p.Input, p.Seed)")

	f, err := parser.ParseFile(token.NewFileSet(), "main.go", src, parser.ImportsOnly)
	require.NoError(t, err)
	var imports []string
	for _, imp := range f.Imports {
		imports = append(imports, imp.Path.Value)
	}
	assert.Equal(t, []string{
		`"github.com/mcpguard/fnadapter/internal/cli"`,
		`"github.com/mcpguard/fnadapter/internal/dispatch"`,
		`"github.com/mcpguard/fnadapter/internal/hash"`,
		`"github.com/mcpguard/fnadapter/internal/wire"`,
	}, imports)
}

func TestGeneratedHashAdapterIsCurrent(t *testing.T) {
	sig, err := LoadSignature(filepath.Join("..", "..", "cmd", "hash-adapter", "hash.yaml"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, sig))

	current, err := os.ReadFile(filepath.Join("..", "..", "cmd", "hash-adapter", "main.go"))
	require.NoError(t, err)
	assert.Equal(t, string(current), buf.String(), "cmd/hash-adapter/main.go is stale; run go generate ./cmd/hash-adapter")
}

func TestGeneratePreservesArgumentOrder(t *testing.T) {
	sig := &Signature{
		Function: "process",
		Import:   "example.com/text",
		Call:     "text.Process",
		Returns:  "String",
		Args: []Arg{
			{Name: "text", Type: "String"},
			{Name: "count", Type: "int"},
		},
		Command: "text-adapter",
	}
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, sig))
	src := buf.String()

	assert.Contains(t, src, "// Code generated by fnadapter gen; DO NOT EDIT.")
	assert.Contains(t, src, "return text.Process(p.Text, p.Count)")
	assert.Contains(t, src, `cli.Execute("text-adapter"`)
	assert.NotContains(t, src, "internal/wire")

	_, err := parser.ParseFile(token.NewFileSet(), "main.go", src, 0)
	assert.NoError(t, err)
}

func TestGenerateNoArgs(t *testing.T) {
	sig := &Signature{Function: "now", Call: "Now", Returns: "long"}
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, sig))
	assert.Contains(t, buf.String(), "return Now()")
}

func TestValidate(t *testing.T) {
	good := hashSignature()
	require.NoError(t, good.Validate())

	cases := map[string]func(s *Signature){
		"empty function":   func(s *Signature) { s.Function = "" },
		"bad call":         func(s *Signature) { s.Call = "hash.Sum()" },
		"call w/o import":  func(s *Signature) { s.Import = "" },
		"unknown return":   func(s *Signature) { s.Returns = "Object" },
		"keyword arg":      func(s *Signature) { s.Args[0].Name = "func" },
		"bad arg name":     func(s *Signature) { s.Args[0].Name = "1st" },
		"duplicate arg":    func(s *Signature) { s.Args[1].Name = "input" },
		"colliding fields": func(s *Signature) { s.Args[1].Name = "Input" },
		"unknown arg type": func(s *Signature) { s.Args[1].Type = "char" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := hashSignature()
			mutate(s)
			assert.Error(t, s.Validate())
			assert.Error(t, Generate(&bytes.Buffer{}, s))
		})
	}
}

func TestLoadSignatureFormats(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"add.json": `{"function":"add","call":"Add","returns":"int","args":[{"name":"a","type":"int"},{"name":"b","type":"int"}]}`,
		"add.yaml": "function: add\ncall: Add\nreturns: int\nargs:\n  - name: a\n    type: int\n  - name: b\n    type: int\n",
		"add.toml": "function = \"add\"\ncall = \"Add\"\nreturns = \"int\"\n\n[[args]]\nname = \"a\"\ntype = \"int\"\n\n[[args]]\nname = \"b\"\ntype = \"int\"\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		sig, err := LoadSignature(path)
		require.NoError(t, err, name)
		assert.Equal(t, "add", sig.Function, name)
		assert.Equal(t, []Arg{{Name: "a", Type: "int"}, {Name: "b", Type: "int"}}, sig.Args, name)
		assert.Equal(t, name, sig.Source)
	}
}

func TestLoadSignatureInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("function: add\ncall: Add\nreturns: Object\n"), 0o644))
	_, err := LoadSignature(path)
	assert.Error(t, err)

	_, err = LoadSignature(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
