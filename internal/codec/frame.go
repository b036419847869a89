package codec

import (
	"encoding/json"
	"fmt"
)

// Kind identifies which of the three frame shapes a Frame carries.
type Kind int

const (
	KindInvalid Kind = iota
	KindCall
	KindReturn
	KindError
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindCall:
		return "call"
	case KindReturn:
		return "return"
	case KindError:
		return "error"
	default:
		return "invalid"
	}
}

// Frame is one self-contained RPC message. Exactly one field is set.
type Frame struct {
	Call   *Call       `json:"call,omitempty"`
	Return *Return     `json:"return,omitempty"`
	Error  *ErrorFrame `json:"error,omitempty"`
}

// Call invokes Method on the receiving side.
type Call struct {
	ID     string            `json:"id"`
	Method string            `json:"method"`
	Args   []json.RawMessage `json:"args"`
}

// Return resolves the call with the same ID.
type Return struct {
	ID    string          `json:"id"`
	Value json.RawMessage `json:"value,omitempty"`
}

// ErrorFrame fails the call with the same ID.
type ErrorFrame struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Kind reports the frame's shape, or KindInvalid when zero or several are set.
func (f Frame) Kind() Kind {
	kind, n := KindInvalid, 0
	if f.Call != nil {
		kind, n = KindCall, n+1
	}
	if f.Return != nil {
		kind, n = KindReturn, n+1
	}
	if f.Error != nil {
		kind, n = KindError, n+1
	}
	if n != 1 {
		return KindInvalid
	}
	return kind
}

// ID returns the correlation id of whichever shape is set.
func (f Frame) ID() string {
	switch f.Kind() {
	case KindCall:
		return f.Call.ID
	case KindReturn:
		return f.Return.ID
	case KindError:
		return f.Error.ID
	default:
		return ""
	}
}

// NewCall builds a call frame, encoding each argument as its own JSON value.
func NewCall(id, method string, args ...any) (Frame, error) {
	raw := make([]json.RawMessage, 0, len(args))
	for i, arg := range args {
		b, err := json.Marshal(arg)
		if err != nil {
			return Frame{}, fmt.Errorf("encoding argument %d of %s: %w", i, method, err)
		}
		raw = append(raw, b)
	}
	return Frame{Call: &Call{ID: id, Method: method, Args: raw}}, nil
}

// NewReturn builds a return frame. A nil value is sent without a value field.
func NewReturn(id string, value any) (Frame, error) {
	ret := &Return{ID: id}
	if value != nil {
		b, err := json.Marshal(value)
		if err != nil {
			return Frame{}, fmt.Errorf("encoding return value for %s: %w", id, err)
		}
		ret.Value = b
	}
	return Frame{Return: ret}, nil
}

// NewError builds an error frame.
func NewError(id, message string) Frame {
	return Frame{Error: &ErrorFrame{ID: id, Message: message}}
}
