package gen

import (
	"errors"
	"fmt"
	"go/token"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/spf13/viper"
)

// Arg is one positional argument of the target function.
type Arg struct {
	Name string `mapstructure:"name"`
	Type string `mapstructure:"type"`
}

// Signature describes the target function an adapter exposes. Args are in
// the function's positional order.
type Signature struct {
	Function string `mapstructure:"function"`
	Import   string `mapstructure:"import"`
	Call     string `mapstructure:"call"`
	Returns  string `mapstructure:"returns"`
	Args     []Arg  `mapstructure:"args"`
	// Command is the adapter's command name; defaults to "<function>-adapter".
	Command string `mapstructure:"command"`

	// Source is the file the signature was read from, named in the
	// generated header.
	Source string `mapstructure:"-"`
}

// LoadSignature reads a signature file in any format viper understands.
func LoadSignature(path string) (*Signature, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read signature: %w", err)
	}

	var sig Signature
	if err := v.Unmarshal(&sig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signature: %w", err)
	}
	sig.Source = filepath.Base(path)

	if err := sig.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &sig, nil
}

var (
	functionName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.:-]*$`)
	callExpr     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
)

func (s *Signature) Validate() error {
	var errs []error
	if !functionName.MatchString(s.Function) {
		errs = append(errs, fmt.Errorf("invalid function name %q", s.Function))
	}
	if !callExpr.MatchString(s.Call) {
		errs = append(errs, fmt.Errorf("invalid call %q: want pkg.Func or Func", s.Call))
	} else if strings.Contains(s.Call, ".") && s.Import == "" {
		errs = append(errs, fmt.Errorf("call %q needs an import", s.Call))
	}
	if _, err := GoType(s.Returns); err != nil {
		errs = append(errs, fmt.Errorf("returns: %w", err))
	}

	args := make(map[string]bool)
	fields := make(map[string]bool)
	for i, a := range s.Args {
		if !token.IsIdentifier(a.Name) || token.IsKeyword(a.Name) {
			errs = append(errs, fmt.Errorf("arg %d: invalid name %q", i, a.Name))
			continue
		}
		if args[a.Name] {
			errs = append(errs, fmt.Errorf("arg %d: duplicate name %q", i, a.Name))
		}
		args[a.Name] = true
		field := fieldName(a.Name)
		if fields[field] {
			errs = append(errs, fmt.Errorf("arg %d: %q collides with another argument as field %s", i, a.Name, field))
		}
		fields[field] = true
		if _, err := GoType(a.Type); err != nil {
			errs = append(errs, fmt.Errorf("arg %s: %w", a.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Signature) command() string {
	if s.Command != "" {
		return s.Command
	}
	return s.Function + "-adapter"
}

// fieldName turns an argument name into an exported Go field name:
// "seed" -> "Seed", "max_len" -> "MaxLen".
func fieldName(arg string) string {
	var b strings.Builder
	upper := true
	for _, r := range arg {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	name := b.String()
	if name == "" || !unicode.IsLetter([]rune(name)[0]) {
		name = "X" + name
	}
	return name
}
