package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

var testLogger = slog.New(slog.DiscardHandler)

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestTrigger_Coalesces(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 10)
	var mu sync.Mutex
	var reasons []string

	trigger := NewTrigger(func(ctx context.Context, reason string) error {
		mu.Lock()
		reasons = append(reasons, reason)
		mu.Unlock()
		started <- reason
		<-release
		return nil
	}, testLogger)

	ctx := context.Background()
	trigger.Fire(ctx, "startup")
	<-started

	// three requests while busy collapse into one follow-up run
	trigger.Fire(ctx, "watch")
	trigger.Fire(ctx, "schedule")
	trigger.Fire(ctx, "watch")
	if !trigger.Busy() {
		t.Error("Busy() = false during a run")
	}

	release <- struct{}{}
	<-started
	release <- struct{}{}
	trigger.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(reasons) != 2 || reasons[0] != "startup" || reasons[1] != "watch" {
		t.Errorf("runs = %v, want [startup watch]", reasons)
	}
	if trigger.Busy() {
		t.Error("Busy() = true after Wait")
	}
}

func TestTrigger_NeverOverlaps(t *testing.T) {
	var active, maxActive, runs atomic.Int32
	trigger := NewTrigger(func(ctx context.Context, reason string) error {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		runs.Add(1)
		return errors.New("logged, not fatal")
	}, testLogger)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			trigger.Fire(context.Background(), "watch")
		}()
	}
	wg.Wait()
	trigger.Wait()

	if maxActive.Load() != 1 {
		t.Errorf("max concurrent runs = %d, want 1", maxActive.Load())
	}
	if runs.Load() < 1 || runs.Load() > 20 {
		t.Errorf("runs = %d", runs.Load())
	}
}

func TestTrigger_CancelledContextDropsPending(t *testing.T) {
	release := make(chan struct{})
	var runs atomic.Int32
	trigger := NewTrigger(func(ctx context.Context, reason string) error {
		runs.Add(1)
		<-release
		return nil
	}, testLogger)

	ctx, cancel := context.WithCancel(context.Background())
	trigger.Fire(ctx, "startup")
	waitFor(t, time.Second, func() bool { return runs.Load() == 1 })
	trigger.Fire(ctx, "watch")
	cancel()
	close(release)
	trigger.Wait()

	if runs.Load() != 1 {
		t.Errorf("runs = %d, pending run should be dropped after cancel", runs.Load())
	}
}

func TestTrigger_CloseWhileFiring(t *testing.T) {
	var runs atomic.Int32
	trigger := NewTrigger(func(ctx context.Context, reason string) error {
		runs.Add(1)
		time.Sleep(time.Millisecond)
		return nil
	}, testLogger)

	ctx := context.Background()
	stop := make(chan struct{})
	var firing sync.WaitGroup
	for i := 0; i < 4; i++ {
		firing.Add(1)
		go func() {
			defer firing.Done()
			for {
				select {
				case <-stop:
					return
				default:
					trigger.Fire(ctx, "watch")
				}
			}
		}()
	}

	waitFor(t, time.Second, func() bool { return runs.Load() > 0 })
	trigger.Close()
	after := runs.Load()
	time.Sleep(20 * time.Millisecond)
	close(stop)
	firing.Wait()

	if runs.Load() != after || trigger.Busy() {
		t.Errorf("runs went from %d to %d after Close", after, runs.Load())
	}
}

func TestTrigger_FireAfterCancelIsDropped(t *testing.T) {
	var runs atomic.Int32
	trigger := NewTrigger(func(ctx context.Context, reason string) error {
		runs.Add(1)
		return nil
	}, testLogger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	trigger.Fire(ctx, "watch")
	trigger.Close()

	if runs.Load() != 0 {
		t.Errorf("runs = %d, want 0 after cancel", runs.Load())
	}
}

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantRunning bool
		wantError   bool
	}{
		{name: "every fifteen minutes", schedule: "*/15 * * * *", wantRunning: true},
		{name: "daily", schedule: "0 3 * * *", wantRunning: true},
		{name: "empty schedule - no error, not running", schedule: ""},
		{name: "invalid schedule", schedule: "invalid cron", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger := NewTrigger(func(context.Context, string) error { return nil }, testLogger)
			scheduler := NewScheduler(tt.schedule, trigger, testLogger)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := scheduler.Start(ctx)
			if (err != nil) != tt.wantError {
				t.Errorf("Start() error = %v, wantError %v", err, tt.wantError)
			}
			if scheduler.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", scheduler.IsRunning(), tt.wantRunning)
			}

			next := scheduler.NextRun()
			if tt.wantRunning {
				if next == nil || !next.After(time.Now()) {
					t.Errorf("NextRun() = %v, want a future time", next)
				}
			} else if next != nil {
				t.Errorf("NextRun() = %v, want nil", next)
			}

			scheduler.Stop()
			if scheduler.IsRunning() {
				t.Error("IsRunning() = true after Stop")
			}
		})
	}
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	trigger := NewTrigger(func(context.Context, string) error { return nil }, testLogger)
	scheduler := NewScheduler("* * * * *", trigger, testLogger)

	ctx, cancel := context.WithCancel(context.Background())
	if err := scheduler.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	waitFor(t, time.Second, func() bool { return !scheduler.IsRunning() })
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var calls atomic.Int32
	var last atomic.Int32

	for i := int32(1); i <= 5; i++ {
		d.Trigger(func() {
			calls.Add(1)
			last.Store(i)
		})
		time.Sleep(5 * time.Millisecond)
	}
	waitFor(t, time.Second, func() bool { return calls.Load() == 1 })
	time.Sleep(50 * time.Millisecond)

	if calls.Load() != 1 {
		t.Errorf("callback ran %d times, want 1", calls.Load())
	}
	if last.Load() != 5 {
		t.Errorf("callback from event %d ran, want the latest (5)", last.Load())
	}

	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	d.Stop()
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != 1 {
		t.Error("callback ran after Stop")
	}
}

func TestShouldProcessEvent(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"create", fsnotify.Event{Name: "/src/a-wildfire.zip", Op: fsnotify.Create}, true},
		{"write", fsnotify.Event{Name: "/src/a-wildfire.zip", Op: fsnotify.Write}, true},
		{"remove", fsnotify.Event{Name: "/src/a-wildfire.zip", Op: fsnotify.Remove}, false},
		{"chmod", fsnotify.Event{Name: "/src/a-wildfire.zip", Op: fsnotify.Chmod}, false},
		{"hidden", fsnotify.Event{Name: "/src/.partial", Op: fsnotify.Create}, false},
		{"temp copy", fsnotify.Event{Name: "/src/.contentsync-123", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldProcessEvent(tt.event); got != tt.want {
				t.Errorf("shouldProcessEvent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSourceWatcher_FiresOnNewFile(t *testing.T) {
	dir := t.TempDir()
	var runs atomic.Int32
	trigger := NewTrigger(func(ctx context.Context, reason string) error {
		if reason != "watch" {
			t.Errorf("reason = %q, want watch", reason)
		}
		runs.Add(1)
		return nil
	}, testLogger)

	sw, err := NewSourceWatcher(dir, 50*time.Millisecond, trigger, testLogger)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sw.Watch(ctx) }()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	for _, name := range []string{"a-wildfire.zip", "b-wildfire.zip", "c-apps.zip"} {
		os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644)
	}

	waitFor(t, 2*time.Second, func() bool { return runs.Load() == 1 })
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
	trigger.Wait()
	if runs.Load() != 1 {
		t.Errorf("a burst of files should produce one run, got %d", runs.Load())
	}
}

func TestSourceWatcher_MissingDir(t *testing.T) {
	trigger := NewTrigger(func(context.Context, string) error { return nil }, testLogger)
	sw, err := NewSourceWatcher(filepath.Join(t.TempDir(), "missing"), time.Millisecond, trigger, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	if err := sw.Watch(context.Background()); err == nil {
		t.Error("Watch() on a missing directory should fail")
	}
}
