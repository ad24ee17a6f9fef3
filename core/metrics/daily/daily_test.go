package daily

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/microgrid/core/metrics"
)

func TestMemoryStore_Aggregation(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Add(Record{RunID: "r1", Day: 0, LoadKWh: 2}))
	require.NoError(t, s.Add(Record{RunID: "r1", Day: 0, LoadKWh: 1, MissedKWh: 0.5}))
	require.NoError(t, s.Add(Record{RunID: "r1", Day: 3, LoadKWh: 4}))
	require.NoError(t, s.Add(Record{RunID: "r2", Day: 0, LoadKWh: 9}))

	recs, err := s.Query("r1", 0, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 3.0, recs[0].LoadKWh)
	assert.InDelta(t, 5.0/6.0, recs[0].ServedFraction(), 1e-12)

	all, err := s.Query("r1", 0, -1)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 3, all[1].Day)
}

func TestSinkSplitsDays(t *testing.T) {
	sink := NewSink(nil)
	for i := 0; i < 48; i++ {
		require.NoError(t, sink.RecordStep(metrics.StepRecord{
			RunID: "r", TimeHrs: float64(i), DtHrs: 1, LoadKW: 10, RenewableKW: 5, MissedLoadKW: 1,
		}))
	}
	recs, err := sink.Store.Query("r", 0, -1)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.InDelta(t, 240, r.LoadKWh, 1e-9)
		assert.InDelta(t, 0.5, r.RenewablePenetration(), 1e-12)
		assert.InDelta(t, 0.9, r.ServedFraction(), 1e-12)
	}
}

func TestRecordEdgeCases(t *testing.T) {
	assert.Equal(t, 1.0, Record{}.ServedFraction())
	assert.Zero(t, Record{}.RenewablePenetration())
	assert.Equal(t, 0, DayOf(-3))
	assert.Equal(t, 1, DayOf(24))
}
