package telemetry

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/rileyhilliard/latensee/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRows(t *testing.T) {
	b := NewBuffer(DefaultCapacity)
	b.Push("get test", 1200)
	b.Push("set test 0", 900)
	b.Push("get test", 1100)

	rows := Rows(b.Snapshot(), 500)

	assert.Equal(t, []Row{
		{TimestampSeconds: 1.5, Command: "get test", LatencyMicroseconds: 1200},
		{TimestampSeconds: 2.0, Command: "get test", LatencyMicroseconds: 1100},
		{TimestampSeconds: 1.5, Command: "set test 0", LatencyMicroseconds: 900},
	}, rows)
}

func TestRows_Empty(t *testing.T) {
	assert.Empty(t, Rows(NewBuffer(0).Snapshot(), 500))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	rows := []Row{
		{TimestampSeconds: 1.5, Command: "get test", LatencyMicroseconds: 1200},
		{TimestampSeconds: 2, Command: "set test, 0", LatencyMicroseconds: 900.25},
	}

	require.NoError(t, WriteCSV(&buf, rows))

	expected := "timestampSeconds,command,latencyMicroSecond\n" +
		"1.5,get test,1200\n" +
		"2,\"set test, 0\",900.25\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "timestampSeconds,command,latencyMicroSecond\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, stderrors.New("disk full") }

func TestWriteCSV_WriterError(t *testing.T) {
	err := WriteCSV(failingWriter{}, []Row{{Command: "x"}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExport))
	assert.Contains(t, errors.Summary(err), "disk full")
}
