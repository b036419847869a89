package doctor

import (
	"context"
	"testing"
	"time"

	"github.com/rileyhilliard/latensee/internal/logger"
	"github.com/rileyhilliard/latensee/internal/probe"
	probetesting "github.com/rileyhilliard/latensee/internal/probe/testing"
	"github.com/stretchr/testify/assert"
)

func TestDialCheck(t *testing.T) {
	fp := probetesting.NewFakeProbe()
	defer fp.Close()

	result := (&DialCheck{URL: fp.URL()}).Run(context.Background())
	assert.Equal(t, StatusPass, result.Status, result.Message)
	assert.Contains(t, result.Message, fp.URL())
}

func TestDialCheck_Refused(t *testing.T) {
	fp := probetesting.NewFakeProbe()
	defer fp.Close()
	fp.Refuse(true)

	result := (&DialCheck{URL: fp.URL(), Timeout: time.Second}).Run(context.Background())
	assert.Equal(t, StatusFail, result.Status)
	assert.Contains(t, result.Message, "Can't reach the probe")
	assert.NotEmpty(t, result.Suggestion)
}

func TestRoundTripCheck(t *testing.T) {
	fp := probetesting.NewFakeProbe()
	defer fp.Close()
	fp.SetMeasuring(true)

	check := &RoundTripCheck{URL: fp.URL(), Logger: logger.NewBufferLogger()}
	result := check.Run(context.Background())

	assert.Equal(t, StatusPass, result.Status, result.Message)
	assert.Contains(t, result.Message, "probe is measuring")
	assert.Equal(t, 1, fp.CallCount(probe.MethodIsMeasuring))
}

func TestRoundTripCheck_RemoteError(t *testing.T) {
	fp := probetesting.NewFakeProbe()
	defer fp.Close()
	fp.FailMethod(probe.MethodIsMeasuring, "not ready")

	result := (&RoundTripCheck{URL: fp.URL(), Logger: logger.Noop()}).Run(context.Background())

	assert.Equal(t, StatusFail, result.Status)
	assert.Contains(t, result.Message, probe.MethodIsMeasuring)
	assert.Contains(t, result.Message, "not ready")
}

func TestRoundTripCheck_Timeout(t *testing.T) {
	fp := probetesting.NewFakeProbe()
	defer fp.Close()
	fp.Hold(probe.MethodIsMeasuring)
	defer fp.Release(probe.MethodIsMeasuring)

	start := time.Now()
	result := (&RoundTripCheck{URL: fp.URL(), Timeout: 200 * time.Millisecond, Logger: logger.Noop()}).Run(context.Background())

	assert.Equal(t, StatusFail, result.Status)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRoundTripCheck_Unreachable(t *testing.T) {
	fp := probetesting.NewFakeProbe()
	defer fp.Close()
	fp.Refuse(true)

	result := (&RoundTripCheck{URL: fp.URL(), Timeout: time.Second}).Run(context.Background())
	assert.Equal(t, StatusFail, result.Status)
	assert.Contains(t, result.Message, "unreachable")
}

func TestNewProbeChecks(t *testing.T) {
	fp := probetesting.NewFakeProbe()
	defer fp.Close()

	results := RunAll(context.Background(), NewProbeChecks(fp.URL(), nil, time.Second))

	if assert.Len(t, results, 2) {
		assert.Equal(t, "probe_dial", results[0].Name)
		assert.Equal(t, "probe_round_trip", results[1].Name)
		assert.False(t, HasFailures(results), "%+v", results)
		assert.Equal(t, "Everything looks good", Summary(results))
	}
}
