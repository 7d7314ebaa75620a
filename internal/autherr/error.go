package autherr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Field is one ordered context entry.
type Field struct {
	Key   string
	Value any
}

// Error is the single error type raised by the protocol core.
type Error struct {
	Kind    Kind
	Message string
	Context []Field

	cause error
}

// New returns an error of kind k with the default message.
func New(k Kind, context ...Field) *Error {
	return &Error{Kind: k, Message: k.Message(), Context: context}
}

// Newf returns an error of kind k with a custom message.
func Newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// Wrap converts a foreign error into kind k, keeping it as the cause. An
// *Error passes through unchanged.
func Wrap(k Kind, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{
		Kind:    k,
		Message: k.Message(),
		Context: []Field{{"details", err.Error()}},
		cause:   err,
	}
}

// Code returns the wire code.
func (e *Error) Code() string { return e.Kind.Code() }

func (e *Error) Error() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %s: %s", e.Kind.Code(), e.Kind, e.Message)
	for i, f := range e.Context {
		if i == 0 {
			b.WriteString(" (")
		} else {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", f.Key, f.Value)
	}
	if len(e.Context) > 0 {
		b.WriteString(")")
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports kind equality so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// With appends context fields and returns e.
func (e *Error) With(key string, value any) *Error {
	e.Context = append(e.Context, Field{key, value})
	return e
}

// Value returns the context value stored under key.
func (e *Error) Value(key string) (any, bool) {
	for _, f := range e.Context {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// MarshalJSON emits the wire shape {"error":{"code","message","context"}}
// keeping context keys in insertion order.
func (e *Error) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(`{"error":{"code":`)
	if err := writeJSON(&b, e.Kind.Code()); err != nil {
		return nil, err
	}
	b.WriteString(`,"message":`)
	if err := writeJSON(&b, e.Message); err != nil {
		return nil, err
	}
	if len(e.Context) > 0 {
		b.WriteString(`,"context":{`)
		for i, f := range e.Context {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := writeJSON(&b, f.Key); err != nil {
				return nil, err
			}
			b.WriteByte(':')
			if err := writeJSON(&b, f.Value); err != nil {
				return nil, err
			}
		}
		b.WriteByte('}')
	}
	b.WriteString("}}")
	return b.Bytes(), nil
}

// UnmarshalJSON reads the wire shape, preserving context order.
func (e *Error) UnmarshalJSON(data []byte) error {
	var wire struct {
		Error *struct {
			Code    string          `json:"code"`
			Message string          `json:"message"`
			Context json.RawMessage `json:"context"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Error == nil || wire.Error.Code == "" {
		return errors.New("missing error object")
	}
	e.Kind = KindForCode(wire.Error.Code)
	e.Message = wire.Error.Message
	e.Context = nil
	if len(wire.Error.Context) == 0 || string(wire.Error.Context) == "null" {
		return nil
	}
	fields, err := orderedFields(wire.Error.Context)
	if err != nil {
		return err
	}
	e.Context = fields
	return nil
}

// Parse decodes a wire error body.
func Parse(data []byte) (*Error, error) {
	e := new(Error)
	if err := json.Unmarshal(data, e); err != nil {
		return nil, err
	}
	return e, nil
}

func orderedFields(raw json.RawMessage) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("context must be an object")
	}
	var fields []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.New("context key must be a string")
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		fields = append(fields, Field{key, v})
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}
	return fields, nil
}

func writeJSON(b *bytes.Buffer, v any) error {
	enc := json.NewEncoder(b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	b.Truncate(b.Len() - 1) // drop the encoder's newline
	return nil
}
