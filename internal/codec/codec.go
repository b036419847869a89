// Package codec turns a message-oriented transport into a sequence of RPC
// frames. Frames are JSON values concatenated without separators; a frame may
// span several transport messages and a message may carry several frames.
package codec

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"iter"
	"sync"

	"github.com/rileyhilliard/latensee/internal/errors"
	"github.com/rileyhilliard/latensee/internal/transport"
)

// ErrInvalidFrame is the cause of a DECODE error for a JSON value that
// carries zero or several frame kinds.
var ErrInvalidFrame = stderrors.New("frame must carry exactly one of call, return or error")

// Codec encodes and decodes frames over one transport.Conn. It is tied to
// that connection and cannot be reused after Decode fails.
type Codec struct {
	conn transport.Conn
	src  *messageReader
	dec  *json.Decoder

	wmu sync.Mutex
}

// New wraps conn. ctx bounds every underlying Read; cancel it (or close conn)
// to unblock a pending Decode.
func New(ctx context.Context, conn transport.Conn) *Codec {
	src := &messageReader{ctx: ctx, conn: conn}
	return &Codec{
		conn: conn,
		src:  src,
		dec:  json.NewDecoder(src),
	}
}

// Encode sends f as exactly one transport message. Safe for concurrent use.
func (c *Codec) Encode(ctx context.Context, f Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrDecode, "Couldn't encode frame", "")
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()

	if err := c.conn.Write(ctx, b); err != nil {
		return errors.Wrap(err, "Couldn't send frame to the probe")
	}
	return nil
}

// Decode returns the next complete frame, waiting for more transport data
// while a value is incomplete. It returns io.EOF when the transport closes at
// a frame boundary and a DECODE error when it closes mid-frame or the stream
// isn't valid JSON or a value isn't exactly one of the three frame kinds.
// Other transport failures come back as TRANSPORT errors.
func (c *Codec) Decode() (Frame, error) {
	var f Frame
	if err := c.dec.Decode(&f); err != nil {
		return Frame{}, classify(err)
	}
	if f.Kind() == KindInvalid {
		return Frame{}, errors.NewDecode(ErrInvalidFrame)
	}
	return f, nil
}

// Frames yields decoded frames in arrival order until the stream ends. A
// clean close ends the sequence silently; any other failure is yielded once
// as the final element.
func (c *Codec) Frames() iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		for {
			f, err := c.Decode()
			if err != nil {
				if !stderrors.Is(err, io.EOF) {
					yield(Frame{}, err)
				}
				return
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}

// Close closes the underlying connection.
func (c *Codec) Close() error {
	return c.conn.Close()
}

func classify(err error) error {
	if stderrors.Is(err, io.EOF) {
		return io.EOF
	}
	if stderrors.Is(err, io.ErrUnexpectedEOF) {
		return errors.NewDecode(err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &syntaxErr) || stderrors.As(err, &typeErr) {
		return errors.NewDecode(err)
	}

	return errors.Wrap(err, "Transport failed while reading frames")
}

// messageReader flattens transport messages into a byte stream for json.Decoder.
type messageReader struct {
	ctx  context.Context
	conn transport.Conn
	buf  []byte
}

func (r *messageReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		msg, err := r.conn.Read(r.ctx)
		if err != nil {
			return 0, err
		}
		r.buf = msg
	}

	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
