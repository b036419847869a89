package rpc

import (
	"context"
	"encoding/json"
	"fmt"
)

// Handler serves one inbound method. The returned value, if non-nil, is sent
// back to the caller in the return frame.
type Handler func(ctx context.Context, args []json.RawMessage) (any, error)

// Handlers maps wire method names to handlers.
type Handlers map[string]Handler

// Arg decodes the i-th positional argument into T.
func Arg[T any](args []json.RawMessage, i int) (T, error) {
	var v T
	if i >= len(args) {
		return v, fmt.Errorf("missing argument %d (got %d)", i, len(args))
	}
	if err := json.Unmarshal(args[i], &v); err != nil {
		return v, fmt.Errorf("argument %d: %w", i, err)
	}
	return v, nil
}
