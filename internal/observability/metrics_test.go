package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/deals", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/deals", "GET", 200, 30*time.Millisecond)
	m.RecordError("/deals", "POST", "VALIDATION_ERROR")
	m.RecordAuditDropped()

	snap := m.Snapshot()
	require.Len(t, snap.Requests, 1)
	assert.Equal(t, "/deals|GET|200", snap.Requests[0].Key)
	assert.EqualValues(t, 2, snap.Requests[0].Count)
	assert.InDelta(t, 20.0, snap.Requests[0].AvgDurationMS, 0.001)
	assert.EqualValues(t, 1, snap.Errors["/deals|POST|VALIDATION_ERROR"])
	assert.EqualValues(t, 1, snap.AuditDropped)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordAuditDropped()
	assert.Empty(t, m.Snapshot().Requests)
}
