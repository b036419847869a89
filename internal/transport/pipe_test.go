package transport

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipe_RoundTrip(t *testing.T) {
	a, b := Pipe()
	ctx := context.Background()

	require.NoError(t, a.Write(ctx, []byte("hello")))
	require.NoError(t, b.Write(ctx, []byte("world")))

	got, err := b.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	got, err = a.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "world", string(got))
}

func TestPipe_WriteCopiesBuffer(t *testing.T) {
	a, b := Pipe()
	msg := []byte("abc")

	require.NoError(t, a.Write(context.Background(), msg))
	msg[0] = 'x'

	got, err := b.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestPipe_CloseDeliversQueuedThenEOF(t *testing.T) {
	a, b := Pipe()

	require.NoError(t, a.WriteString("pending"))
	require.NoError(t, a.Close())

	got, err := b.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pending", string(got))

	_, err = b.Read(context.Background())
	assert.ErrorIs(t, err, io.EOF)

	_, err = a.Read(context.Background())
	assert.ErrorIs(t, err, io.EOF, "closing one end closes both")
}

func TestPipe_WriteAfterClose(t *testing.T) {
	a, b := Pipe()
	require.NoError(t, b.Close())

	assert.ErrorIs(t, a.Write(context.Background(), []byte("x")), io.ErrClosedPipe)
	assert.NoError(t, a.Close(), "double close is harmless")
}

func TestPipe_ReadHonorsContext(t *testing.T) {
	a, _ := Pipe()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := a.Read(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDialerFunc(t *testing.T) {
	a, _ := Pipe()
	var gotURL string
	d := DialerFunc(func(ctx context.Context, url string) (Conn, error) {
		gotURL = url
		return a, nil
	})

	conn, err := d.Dial(context.Background(), "ws://example")
	require.NoError(t, err)
	assert.Equal(t, a, conn)
	assert.Equal(t, "ws://example", gotURL)
}
