package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/i474232898/bs-smart-parking/internal/parking"
)

type recordingRefresher struct {
	mu    sync.Mutex
	calls [][]parking.DataSource
}

func (r *recordingRefresher) Refresh(_ context.Context, only ...parking.DataSource) parking.RefreshReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, only)
	return parking.RefreshReport{ID: "test", Sources: []parking.SourceReport{{Source: parking.SourceLive, Count: 1}}}
}

func (r *recordingRefresher) snapshot() [][]parking.DataSource {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]parking.DataSource(nil), r.calls...)
}

func TestScheduler_RefreshesOnlyLiveSource(t *testing.T) {
	rec := &recordingRefresher{}
	s := New(time.Second, rec, zaptest.NewLogger(t))
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return len(rec.snapshot()) >= 1 }, 3*time.Second, 50*time.Millisecond)

	for _, call := range rec.snapshot() {
		assert.Equal(t, []parking.DataSource{parking.SourceLive}, call)
	}
}

func TestScheduler_DefaultInterval(t *testing.T) {
	s := New(0, &recordingRefresher{}, nil)
	assert.Equal(t, 2*time.Minute, s.interval)
}
