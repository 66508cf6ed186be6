package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/volscan/pkg/logger"
)

type reloadLog struct {
	mu       sync.Mutex
	at       []time.Time
	contents []string
}

func (r *reloadLog) record(path string) {
	data, _ := os.ReadFile(path)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.at = append(r.at, time.Now())
	r.contents = append(r.contents, string(data))
}

func (r *reloadLog) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.at)
}

func (r *reloadLog) last() (time.Time, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.at[len(r.at)-1], r.contents[len(r.contents)-1]
}

func TestWatcher_ReloadsOnceAfterLastWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "Input File.xlsx")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(target, []byte("v0"), 0o644))

	cooldown := 100 * time.Millisecond
	w := NewWatcher(target, cooldown, logger.Nop())

	reloads := &reloadLog{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func() { reloads.record(target) })
	}()

	// the watch is registered asynchronously; write slower than the cooldown until a reload lands
	assert.Eventually(t, func() bool {
		os.WriteFile(target, []byte("v1"), 0o644)
		return reloads.count() > 0
	}, 3*time.Second, 3*cooldown)
	time.Sleep(3 * cooldown)
	base := reloads.count()

	// 한 번의 저장이 여러 번의 쓰기로 나뉘는 경우
	for _, part := range []string{"par", "partial", "partial-save"} {
		require.NoError(t, os.WriteFile(target, []byte(part), 0o644))
		time.Sleep(cooldown / 5)
	}
	require.NoError(t, os.WriteFile(target, []byte("final"), 0o644))
	lastWrite := time.Now()
	require.NoError(t, os.WriteFile(other, []byte("unrelated"), 0o644))

	assert.Eventually(t, func() bool { return reloads.count() == base+1 }, time.Second, 10*time.Millisecond)
	time.Sleep(3 * cooldown)
	assert.Equal(t, base+1, reloads.count(), "burst collapses into one reload")

	reloadedAt, content := reloads.last()
	assert.Equal(t, "final", content, "reload sees the completed save")
	assert.True(t, reloadedAt.After(lastWrite))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "Input File.xlsx")
	other := filepath.Join(dir, "Input File.xlsx.bak")

	w := NewWatcher(target, time.Millisecond, logger.Nop())

	var calls int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, func() { atomic.AddInt32(&calls, 1) })

	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))
		time.Sleep(20 * time.Millisecond)
	}
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing", "Input File.xlsx"), time.Second, logger.Nop())
	err := w.Run(context.Background(), func() {})
	require.Error(t, err)
}
