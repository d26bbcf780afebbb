package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer r.Close()

	base := time.Date(2024, 4, 10, 8, 0, 0, 0, time.UTC)
	events := []*RunEvent{
		{Timestamp: base, Ticker: "HMY", Years: 1, Horizon: 365, Rows: 2500, LastClose: 100, ForecastClose: 110,
			Percent: 10, ChangeOK: true, ColumnsOK: []string{"Open", "Close", "High", "Low"}},
		{Timestamp: base.Add(time.Minute), Ticker: "JMIA", Years: 2, Error: "data unavailable"},
	}
	for _, e := range events {
		require.NoError(t, r.RecordRun(e))
	}

	runs, err := r.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "JMIA", runs[0].Ticker, "newest first")
	assert.Equal(t, "data unavailable", runs[0].Error)

	got := runs[1]
	assert.True(t, got.ChangeOK)
	assert.Len(t, got.ColumnsOK, 4)
	assert.Nil(t, got.ColumnsFailed)
	assert.True(t, got.Timestamp.Equal(base), "timestamp: expected %s, got %s", base, got.Timestamp)
}

func TestSQLiteRecorder_Limit(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer r.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, r.RecordRun(&RunEvent{Ticker: "KOS", Years: i + 1}))
	}
	runs, err := r.RecentRuns(3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	require.NoError(t, r.RecordRun(&RunEvent{Ticker: "NL"}))
	runs, err := r.RecentRuns(5)
	require.NoError(t, err)
	assert.Nil(t, runs)
}
