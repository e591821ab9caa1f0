// Package dispatch routes a request envelope to a registered target function.
//
// Each registered function owns a closure that decodes params into the
// function's typed argument record, calls the function with those arguments
// in their declared order and encodes its result. Routing and validation
// failures become error responses; only a malformed envelope is fatal to Run.
package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mcpguard/fnadapter/internal/envelope"
)

// Handler decodes raw params, invokes a target function and returns its
// encoded result.
type Handler func(params json.RawMessage) (json.RawMessage, error)

// Screener inspects params before they are decoded. A non-empty result
// rejects the request; each entry describes one finding.
type Screener interface {
	Screen(params json.RawMessage) ([]string, error)
}

// Dispatcher routes a request to the handler registered under its name.
type Dispatcher struct {
	handlers map[string]Handler
	screener Screener
	log      zerolog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithLogger(log zerolog.Logger) Option {
	return func(d *Dispatcher) { d.log = log }
}

func WithScreener(s Screener) Option {
	return func(d *Dispatcher) { d.screener = s }
}

// New returns an empty Dispatcher. Nothing is logged unless WithLogger is given.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[string]Handler),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle registers h under name. It panics on an empty or duplicate name.
func (d *Dispatcher) Handle(name string, h Handler) {
	if name == "" {
		panic("dispatch: empty function name")
	}
	if h == nil {
		panic("dispatch: nil handler for " + name)
	}
	if _, dup := d.handlers[name]; dup {
		panic("dispatch: multiple registrations for " + name)
	}
	d.handlers[name] = h
}

// Register exposes fn under name. P is the argument record: a struct with one
// field per argument, named by json tags. It panics if P is not a struct.
func Register[P any, R any](d *Dispatcher, name string, fn func(P) R) {
	schema, err := schemaOf(reflect.TypeOf((*P)(nil)).Elem())
	if err != nil {
		panic("dispatch: " + name + ": " + err.Error())
	}
	d.Handle(name, func(raw json.RawMessage) (json.RawMessage, error) {
		var p P
		if err := schema.decode(raw, reflect.ValueOf(&p).Elem()); err != nil {
			return nil, err
		}
		return encodeResult(fn(p))
	})
}

// ErrNullResult is returned when a target produces a value that encodes to
// JSON null, which a success response cannot carry.
var ErrNullResult = errors.New("function returned null")

func encodeResult(v any) (json.RawMessage, error) {
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			v = reflect.MakeSlice(rv.Type(), 0, 0).Interface()
		}
	case reflect.Map:
		if rv.IsNil() {
			v = reflect.MakeMap(rv.Type()).Interface()
		}
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	if envelope.IsNull(out) {
		return nil, ErrNullResult
	}
	return out, nil
}

// Names returns the registered function names in sorted order.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch routes req and always returns a well-formed response.
func (d *Dispatcher) Dispatch(req envelope.Request) envelope.Response {
	log := d.log.With().Str("function", req.FunctionName).Logger()

	h, ok := d.handlers[req.FunctionName]
	if !ok {
		log.Info().Msg("unsupported function")
		return envelope.Failure(envelope.UnsupportedFunction)
	}

	if d.screener != nil {
		findings, err := d.screener.Screen(req.Params)
		if err != nil {
			log.Error().Err(err).Msg("screening failed")
			return envelope.Failure("screening failed: " + err.Error())
		}
		if len(findings) > 0 {
			log.Info().Strs("findings", findings).Msg("params blocked by screening")
			return envelope.Failure("Blocked: params contain sensitive data: " + strings.Join(findings, "; "))
		}
	}

	data, err := h(req.Params)
	if err != nil {
		var pe *ParamsError
		if errors.As(err, &pe) {
			log.Info().Err(err).Msg("params rejected")
		} else {
			log.Error().Err(err).Msg("call failed")
		}
		return envelope.Failure(err.Error())
	}
	log.Debug().Int("bytes", len(data)).Msg("call succeeded")
	return envelope.Success(data)
}

// Run reads one request envelope from in and writes one response line to out.
// A malformed envelope is returned as an error and nothing is written.
func (d *Dispatcher) Run(in io.Reader, out io.Writer) error {
	body, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	req, err := envelope.Decode(body)
	if err != nil {
		d.log.Error().Err(err).Int("bytes", len(body)).Msg("rejecting request")
		return err
	}
	d.log.Debug().Str("function", req.FunctionName).Msg("request received")
	if err := d.Dispatch(req).Encode(out); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}
