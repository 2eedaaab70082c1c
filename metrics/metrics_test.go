package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Results.Inc()
	m.BusMessages.WithLabelValues("eos").Inc()
	m.DrawDuration.Observe(0.001)

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	// Eight plain collectors plus the one labelled bus series.
	assert.Equal(t, 9, n)

	n, err = testutil.GatherAndCount(reg, "ssdcam_bus_messages_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Results))
}

func TestNewUnregistered(t *testing.T) {
	m := New(nil)
	m.Detections.Add(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Detections))

	// A second set can be registered alongside since nothing was claimed.
	assert.NotPanics(t, func() { New(prometheus.NewRegistry()) })
}
