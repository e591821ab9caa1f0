// Package gen generates adapter programs from a declarative description of
// the target function's signature.
package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"sort"
	"strings"
	"text/template"
)

const (
	modulePath     = "github.com/mcpguard/fnadapter"
	cliImport      = modulePath + "/internal/cli"
	dispatchImport = modulePath + "/internal/dispatch"
	wireImport     = modulePath + "/internal/wire"
)

var adapterTemplate = template.Must(template.New("adapter").Parse(`// Code generated by fnadapter gen{{if .Source}} from {{.Source}}{{end}}; DO NOT EDIT.

package main

import (
{{- range .Imports}}
	"{{.}}"
{{- end}}
)

type params struct {
{{- range .Fields}}
	{{.Name}} {{.Type}} ` + "`" + `json:"{{.JSON}}"` + "`" + `
{{- end}}
}

func main() {
	cli.Execute({{printf "%q" .Command}}, func(d *dispatch.Dispatcher) {
		dispatch.Register(d, {{printf "%q" .Function}}, func(p params) {{.Returns}} {
			return {{.Call}}({{.CallArgs}})
		})
	})
}
`))

type field struct {
	Name string
	Type string
	JSON string
}

type templateData struct {
	Source   string
	Imports  []string
	Fields   []field
	Command  string
	Function string
	Returns  string
	Call     string
	CallArgs string
}

// Generate writes a gofmt'd adapter main package for s to w.
func Generate(w io.Writer, s *Signature) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}

	data := templateData{
		Source:   s.Source,
		Command:  s.command(),
		Function: s.Function,
		Call:     s.Call,
	}
	usesWire := false

	returns, _ := GoType(s.Returns)
	data.Returns = returns
	usesWire = usesWire || strings.Contains(returns, WireBytes)

	callArgs := make([]string, 0, len(s.Args))
	for _, a := range s.Args {
		goType, _ := GoType(a.Type)
		usesWire = usesWire || strings.Contains(goType, WireBytes)
		f := field{Name: fieldName(a.Name), Type: goType, JSON: a.Name}
		data.Fields = append(data.Fields, f)
		callArgs = append(callArgs, "p."+f.Name)
	}
	data.CallArgs = strings.Join(callArgs, ", ")

	imports := map[string]bool{cliImport: true, dispatchImport: true}
	if usesWire {
		imports[wireImport] = true
	}
	if s.Import != "" {
		imports[s.Import] = true
	}
	for imp := range imports {
		data.Imports = append(data.Imports, imp)
	}
	sort.Strings(data.Imports)

	var buf bytes.Buffer
	if err := adapterTemplate.Execute(&buf, &data); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("format generated source: %w", err)
	}
	_, err = w.Write(src)
	return err
}
