package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveFlatten(t *testing.T) {
	before := testutil.ToFloat64(FlattenCalls.WithLabelValues("ragged"))
	rows := testutil.ToFloat64(RowsEmitted)

	ObserveFlatten("ragged", time.Millisecond, 12, 3)

	assert.Equal(t, before+1, testutil.ToFloat64(FlattenCalls.WithLabelValues("ragged")))
	assert.Equal(t, rows+12, testutil.ToFloat64(RowsEmitted))
}

func TestObserveFailure(t *testing.T) {
	before := testutil.ToFloat64(FlattenFailures.WithLabelValues("structural_incompatibility"))
	ObserveFailure("structural_incompatibility")
	assert.Equal(t, before+1, testutil.ToFloat64(FlattenFailures.WithLabelValues("structural_incompatibility")))
}

func TestTimer(t *testing.T) {
	timer := NewTimer("flatten")
	assert.Equal(t, "flatten", timer.Name())
	assert.GreaterOrEqual(t, timer.Stop(), time.Duration(0))
}

func TestWriteTextfile(t *testing.T) {
	ObserveFlatten("flat", time.Millisecond, 1, 1)
	path := filepath.Join(t.TempDir(), "rootflat.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "rootflat_flatten_calls_total"))
}

func TestRecordProcessStats(t *testing.T) {
	require.NoError(t, RecordProcessStats())
	assert.Greater(t, testutil.ToFloat64(ProcessRSS), 0.0)
}
