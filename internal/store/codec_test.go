package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/veritaslabs/veritas/internal/claims"
	"github.com/veritaslabs/veritas/internal/progress"
)

func TestStatusCodec(t *testing.T) {
	t.Parallel()

	in := claims.StatusSnapshot{State: claims.StateRunning, CurrentStage: claims.StageClaim}
	data, err := EncodeStatus(in)
	require.NoError(t, err)

	out, err := DecodeStatus(data)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestEventCodec_PreservesMeta(t *testing.T) {
	t.Parallel()

	in := progress.Event{
		JobID:   "job-1",
		TS:      time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
		Source:  progress.SourceScraper,
		Type:    progress.TypeToolCall,
		Message: "scrape attempt",
		Meta:    map[string]string{"url": "https://example.com/a", "method": "structured"},
	}
	data, err := EncodeEvent(in)
	require.NoError(t, err)

	out, err := DecodeEvent(data)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestDecodeEvent_RejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := DecodeEvent([]byte("not json"))
	require.Error(t, err)

	_, err = DecodeEvent([]byte(`{"ts":"never"}`))
	require.Error(t, err)
}
