package toolkit

import (
	"sync"

	"golang.org/x/sys/unix"

	"github.com/bnema/wltk/internal/logger"
)

// Task is a unit of deferred work run on the loop goroutine.
type Task func()

// taskQueue is the deferred work list. Handlers enqueue from any
// goroutine; the loop drains in FIFO order.
type taskQueue struct {
	mu    sync.Mutex
	tasks []Task
}

func (q *taskQueue) push(t Task) {
	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	q.mu.Unlock()
}

func (q *taskQueue) pop() Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil
	}
	t := q.tasks[0]
	q.tasks = q.tasks[1:]
	return t
}

// Defer queues a task to run on the loop goroutine after the current
// dispatch batch. Tasks queued while draining run in the same drain.
func (d *Display) Defer(t Task) {
	d.tasks.push(t)
	d.notify()
}

// notify nudges the run loop without blocking if a wakeup is already
// pending.
func (d *Display) notify() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Display) drainTasks() {
	for {
		t := d.tasks.pop()
		if t == nil {
			return
		}
		t()
	}
}

// WatchFD runs task on the loop goroutine whenever fd reports one of
// events (unix.POLLIN and friends). The returned stop function ends the
// watch; it is safe to call more than once.
func (d *Display) WatchFD(fd int, events int16, task Task) (stop func()) {
	done := make(chan struct{})
	var once sync.Once

	go func() {
		pfd := []unix.PollFd{{Fd: int32(fd), Events: events}}
		for {
			select {
			case <-done:
				return
			default:
			}

			pfd[0].Revents = 0
			n, err := unix.Poll(pfd, watchPollTimeoutMs)
			if err != nil {
				if err == unix.EINTR {
					continue
				}
				logger.Warn("fd watch ended", "fd", fd, "error", err)
				return
			}
			if n == 0 {
				continue
			}
			if pfd[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
				d.Defer(task)
				return
			}
			d.Defer(task)
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}

// Poll timeout so a stopped watch is noticed without an extra wakeup
// pipe per watch.
const watchPollTimeoutMs = 200
