package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/mcpguard/fnadapter/internal/envelope"
)

// ParamsError describes why params could not be decoded into the target
// function's argument record. Its message is reported as error_message.
type ParamsError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ParamsError) Error() string {
	var b strings.Builder
	b.WriteString("invalid params: ")
	if e.Field != "" {
		fmt.Fprintf(&b, "field `%s`: ", e.Field)
	}
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParamsError) Unwrap() error { return e.Err }

type paramField struct {
	name     string
	index    []int
	required bool
}

// paramSchema is the JSON shape of a Params struct: one member per exported
// field, named by its json tag. Fields tagged omitempty are optional.
type paramSchema struct {
	typ    reflect.Type
	fields []paramField
	known  map[string]bool
}

func schemaOf(t reflect.Type) (*paramSchema, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("params type %s is not a struct", t)
	}
	s := &paramSchema{typ: t, known: make(map[string]bool)}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = sf.Name
		}
		if s.known[name] {
			return nil, fmt.Errorf("params type %s declares %q twice", t, name)
		}
		s.known[name] = true
		s.fields = append(s.fields, paramField{
			name:     name,
			index:    sf.Index,
			required: !strings.Contains(opts, "omitempty"),
		})
	}
	return s, nil
}

// decode fills dst, a settable value of s.typ, from raw. Member names must
// match exactly; absent or null required members and mistyped values fail.
func (s *paramSchema) decode(raw json.RawMessage, dst reflect.Value) error {
	if envelope.IsNull(raw) {
		return &ParamsError{Reason: "expected a JSON object, got null"}
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &ParamsError{Reason: "expected a JSON object, got " + typeErr.Value}
		}
		return &ParamsError{Reason: "malformed object", Err: err}
	}

	var unknown []string
	for name := range members {
		if !s.known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &ParamsError{Field: unknown[0], Reason: "unknown field"}
	}

	for _, f := range s.fields {
		v, ok := members[f.name]
		if !ok || envelope.IsNull(v) {
			if f.required {
				return &ParamsError{Field: f.name, Reason: "missing field"}
			}
			continue
		}
		if path, ok := nullElement(v, ""); ok {
			return &ParamsError{Field: f.name, Reason: "invalid value", Err: fmt.Errorf("element %s is null", path)}
		}
		target := dst.FieldByIndex(f.index).Addr().Interface()
		if err := json.Unmarshal(v, target); err != nil {
			return &ParamsError{Field: f.name, Reason: "invalid value", Err: err}
		}
	}
	return nil
}

// nullElement finds the first null element of raw when raw is an array,
// descending into nested arrays. encoding/json leaves the zero value in
// place for a null element instead of failing.
func nullElement(raw json.RawMessage, prefix string) (string, bool) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return "", false
	}
	for i, elem := range elems {
		path := fmt.Sprintf("%s[%d]", prefix, i)
		if envelope.IsNull(elem) {
			return path, true
		}
		if p, ok := nullElement(elem, path); ok {
			return p, true
		}
	}
	return "", false
}
