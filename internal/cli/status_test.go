package cli

import (
	"bytes"
	"context"
	stderrors "errors"
	"encoding/json"
	"testing"
	"time"

	"github.com/rileyhilliard/latensee/internal/errors"
	"github.com/rileyhilliard/latensee/internal/probe"
	probetesting "github.com/rileyhilliard/latensee/internal/probe/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Text(t *testing.T) {
	fake := probetesting.NewFakeProbe()
	defer fake.Close()
	fake.SetMeasuring(true)

	var buf bytes.Buffer
	err := Status(context.Background(), &buf, testConfig(fake.URL()), StatusOptions{Timeout: 2 * time.Second})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Linked to "+fake.URL())
	assert.Contains(t, out, "built-in defaults")
	assert.Contains(t, out, "set test 0, get test")
	assert.Contains(t, out, "500ms")
	assert.Contains(t, out, "yes")
	assert.NotContains(t, out, "[sync]")
}

func TestStatus_JSONPushesSettings(t *testing.T) {
	fake := probetesting.NewFakeProbe()
	defer fake.Close()

	cfg := testConfig(fake.URL())
	cfg.Probe.TargetURL = "redis://cache:6379/2"
	cfg.Probe.Interval = 125
	cfg.Probe.Commands = []string{"PING"}

	var buf bytes.Buffer
	err := Status(context.Background(), &buf, cfg, StatusOptions{Timeout: 2 * time.Second, JSON: true, ConfigPath: "/tmp/.latensee.yaml"})
	require.NoError(t, err)

	var out StatusOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, StatusOutput{
		SocketURL:            fake.URL(),
		Config:               "/tmp/.latensee.yaml",
		TargetURL:            "redis://cache:6379/2",
		IntervalMilliseconds: 125,
		Commands:             []string{"PING"},
	}, out)

	target, interval, commands := fake.Settings()
	assert.Equal(t, "redis://cache:6379/2", target)
	assert.Equal(t, int64(125), interval)
	assert.Equal(t, []string{"PING"}, commands)
	assert.Equal(t, 1, fake.CallCount(probe.MethodIsMeasuring))
}

func TestStatus_ReportsRejectedSettings(t *testing.T) {
	fake := probetesting.NewFakeProbe()
	defer fake.Close()
	fake.FailMethod(probe.MethodSetCommands, "unknown command FOO")

	var buf bytes.Buffer
	err := Status(context.Background(), &buf, testConfig(fake.URL()), StatusOptions{Timeout: 2 * time.Second, JSON: true})
	require.NoError(t, err)

	var out StatusOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out.SyncErrors, 1)
	assert.Contains(t, out.SyncErrors[0], "unknown command FOO")
}

func TestStatus_Unreachable(t *testing.T) {
	fake := probetesting.NewFakeProbe()
	defer fake.Close()
	fake.Refuse(true)

	start := time.Now()
	var buf bytes.Buffer
	err := Status(context.Background(), &buf, testConfig(fake.URL()), StatusOptions{Timeout: 300 * time.Millisecond})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTransport), "got %v", err)
	assert.Contains(t, err.Error(), "latensee doctor")
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.Empty(t, buf.String())
}

func TestSetMeasuring(t *testing.T) {
	fake := probetesting.NewFakeProbe()
	defer fake.Close()
	cfg := testConfig(fake.URL())

	var buf bytes.Buffer
	require.NoError(t, SetMeasuring(context.Background(), &buf, cfg, true, 2*time.Second))
	assert.Contains(t, buf.String(), "Probe is measuring")
	assert.Equal(t, 1, fake.CallCount(probe.MethodStartMeasurement))

	buf.Reset()
	require.NoError(t, SetMeasuring(context.Background(), &buf, cfg, false, 2*time.Second))
	assert.Contains(t, buf.String(), "Probe is idle")
	assert.Equal(t, 1, fake.CallCount(probe.MethodStopMeasurement))
}

func TestSetMeasuring_AlreadyInState(t *testing.T) {
	fake := probetesting.NewFakeProbe()
	defer fake.Close()
	fake.SetMeasuring(true)

	var buf bytes.Buffer
	require.NoError(t, SetMeasuring(context.Background(), &buf, testConfig(fake.URL()), true, 2*time.Second))
	assert.Contains(t, buf.String(), "already measuring")
	assert.Zero(t, fake.CallCount(probe.MethodStartMeasurement))
}

func TestSetMeasuring_Rejected(t *testing.T) {
	fake := probetesting.NewFakeProbe()
	defer fake.Close()
	fake.FailMethod(probe.MethodStartMeasurement, "target unreachable")

	var buf bytes.Buffer
	err := SetMeasuring(context.Background(), &buf, testConfig(fake.URL()), true, 2*time.Second)

	code, ok := errors.GetExitCode(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "Start failed")
	assert.Contains(t, buf.String(), "target unreachable")
}

func TestUnjoin(t *testing.T) {
	a := errors.New(errors.ErrRemote, "a", "")
	b := errors.New(errors.ErrRemote, "b", "")
	c := errors.New(errors.ErrRemote, "c", "")

	assert.Nil(t, unjoin(nil))
	assert.Equal(t, []error{a}, unjoin(a))
	assert.Equal(t, []error{a, b, c}, unjoin(stderrors.Join(stderrors.Join(a, b), c)))
}
