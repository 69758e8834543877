package finalizer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingFinalizer struct {
	mu    sync.Mutex
	calls map[int64]int
}

func newRecordingFinalizer() *recordingFinalizer {
	return &recordingFinalizer{calls: make(map[int64]int)}
}

func (f *recordingFinalizer) FinalizeAuction(_ context.Context, id int64) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++
	return Result{Outcome: OutcomeFinalized, Published: true}, nil
}

func (f *recordingFinalizer) count(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func armed(s *TimerScheduler) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func TestTimerScheduler_PastEndTimeFiresImmediately(t *testing.T) {
	t.Parallel()

	fin := newRecordingFinalizer()
	s := NewTimerScheduler(context.Background(), fin, time.Second)
	defer s.Stop()

	s.Schedule(7, time.Now().Add(-time.Minute))

	require.Eventually(t, func() bool { return fin.count(7) == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return armed(s) == 0 }, time.Second, 5*time.Millisecond)
}

func TestTimerScheduler_RescheduleReplaces(t *testing.T) {
	t.Parallel()

	fin := newRecordingFinalizer()
	s := NewTimerScheduler(context.Background(), fin, time.Second)
	defer s.Stop()

	s.Schedule(1, time.Now().Add(time.Hour))
	s.Schedule(1, time.Now().Add(20*time.Millisecond))
	require.Equal(t, 1, armed(s))

	require.Eventually(t, func() bool { return fin.count(1) == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, 0, armed(s))
}

func TestTimerScheduler_StopDisarmsPending(t *testing.T) {
	t.Parallel()

	fin := newRecordingFinalizer()
	s := NewTimerScheduler(context.Background(), fin, time.Second)

	s.Schedule(1, time.Now().Add(30*time.Millisecond))
	s.Stop()
	require.Equal(t, 0, armed(s))

	time.Sleep(80 * time.Millisecond)
	require.Equal(t, 0, fin.count(1))
}

func TestTimerScheduler_StopIgnoresLaterSchedules(t *testing.T) {
	t.Parallel()

	fin := newRecordingFinalizer()
	s := NewTimerScheduler(context.Background(), fin, time.Second)

	s.Schedule(1, time.Now().Add(time.Hour))
	s.Schedule(2, time.Now().Add(time.Hour))
	require.Equal(t, 2, armed(s))

	s.Stop()
	require.Equal(t, 0, armed(s))

	s.Schedule(3, time.Now().Add(-time.Second))
	require.Equal(t, 0, armed(s))
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, 0, fin.count(3))
}

func TestTimerScheduler_CancelledBaseSkipsFire(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fin := newRecordingFinalizer()
	s := NewTimerScheduler(ctx, fin, time.Second)
	defer s.Stop()

	s.Schedule(1, time.Now().Add(-time.Second))
	require.Eventually(t, func() bool { return armed(s) == 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 0, fin.count(1))
}
