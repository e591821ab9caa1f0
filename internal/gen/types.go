package gen

import (
	"fmt"
	"strings"
)

// WireBytes is the Go type used for byte sequence arguments.
const WireBytes = "wire.Bytes"

var scalarTypes = map[string]string{
	// Java
	"int":     "int32",
	"long":    "int64",
	"short":   "int16",
	"byte":    "int8",
	"float":   "float32",
	"double":  "float64",
	"boolean": "bool",
	"String":  "string",
	"Integer": "int32",
	"Long":    "int64",
	"Double":  "float64",
	"Boolean": "bool",

	// Rust
	"i8":   "int8",
	"i16":  "int16",
	"i32":  "int32",
	"i64":  "int64",
	"u8":   "uint8",
	"u16":  "uint16",
	"u32":  "uint32",
	"u64":  "uint64",
	"f32":  "float32",
	"f64":  "float64",
	"bool": "bool",
	"&str": "string",

	// Go
	"int8":    "int8",
	"int16":   "int16",
	"int32":   "int32",
	"int64":   "int64",
	"uint8":   "uint8",
	"uint16":  "uint16",
	"uint32":  "uint32",
	"uint64":  "uint64",
	"float32": "float32",
	"float64": "float64",
	"string":  "string",
}

// GoType maps a declared argument or return type to the Go type used in the
// generated Params record. Java, Rust and Go spellings are accepted; Java int
// is int32 and byte sequences map to wire.Bytes.
func GoType(declared string) (string, error) {
	t := strings.TrimSpace(declared)
	switch t {
	case "":
		return "", fmt.Errorf("empty type")
	case "byte[]", "Vec<u8>", "&[u8]", "[]byte", "[]uint8":
		return WireBytes, nil
	}

	if elem, ok := strings.CutSuffix(t, "[]"); ok {
		return sliceOf(elem, declared)
	}
	if elem, ok := strings.CutPrefix(t, "[]"); ok {
		return sliceOf(elem, declared)
	}
	if strings.HasPrefix(t, "Vec<") && strings.HasSuffix(t, ">") {
		return sliceOf(t[len("Vec<"):len(t)-1], declared)
	}
	if strings.HasPrefix(t, "&[") && strings.HasSuffix(t, "]") {
		return sliceOf(t[len("&["):len(t)-1], declared)
	}

	if goType, ok := scalarTypes[t]; ok {
		return goType, nil
	}
	return "", fmt.Errorf("unsupported type %q", declared)
}

func sliceOf(elem, declared string) (string, error) {
	inner, err := GoType(elem)
	if err != nil {
		return "", fmt.Errorf("unsupported type %q: %w", declared, err)
	}
	return "[]" + inner, nil
}
