package timer

import (
	"sync"
	"time"
)

// Task is a repeating callback that can be cancelled.
type Task interface {
	Stop()
}

// Scheduler runs fn every interval until the returned Task is stopped.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Task
}

// TickerScheduler runs each task on its own goroutine driven by a
// time.Ticker.
type TickerScheduler struct{}

func (TickerScheduler) Every(interval time.Duration, fn func()) Task {
	t := &tickerTask{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-t.stop:
				return
			}
		}
	}()
	return t
}

type tickerTask struct {
	once sync.Once
	stop chan struct{}
}

func (t *tickerTask) Stop() {
	t.once.Do(func() { close(t.stop) })
}

// ManualScheduler fires tasks only when Tick is called. It lets tests and
// scripted runs drive the timer without waiting on the wall clock.
type ManualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	fn      func()
	stopped bool
	owner   *ManualScheduler
}

func (t *manualTask) Stop() {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	t.stopped = true
}

func (s *ManualScheduler) Every(_ time.Duration, fn func()) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTask{fn: fn, owner: s}
	s.tasks = append(s.tasks, t)
	return t
}

// Active reports how many tasks are still scheduled.
func (s *ManualScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Tick fires every active task n times, one round at a time. Tasks started
// during a round first fire in the next one.
func (s *ManualScheduler) Tick(n int) {
	for i := 0; i < n; i++ {
		s.mu.Lock()
		live := s.tasks[:0]
		for _, t := range s.tasks {
			if !t.stopped {
				live = append(live, t)
			}
		}
		s.tasks = live
		round := append([]*manualTask(nil), live...)
		s.mu.Unlock()

		for _, t := range round {
			s.mu.Lock()
			stopped := t.stopped
			s.mu.Unlock()
			if !stopped {
				t.fn()
			}
		}
	}
}
