package toolkit

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestDeferRunsInOrder(t *testing.T) {
	d := newTestDisplay()

	var got []int
	for i := 0; i < 5; i++ {
		d.Defer(func() { got = append(got, i) })
	}
	d.drainTasks()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestDeferredTaskDefersIntoSameDrain(t *testing.T) {
	d := newTestDisplay()

	var got []string
	d.Defer(func() {
		got = append(got, "first")
		d.Defer(func() { got = append(got, "nested") })
	})
	d.Defer(func() { got = append(got, "second") })

	d.drainTasks()
	assert.Equal(t, []string{"first", "second", "nested"}, got)
}

func TestNotifyNeverBlocks(t *testing.T) {
	d := newTestDisplay()
	d.notify()
	d.notify()
	d.notify()
	assert.Len(t, d.wake, 1)
}

func TestWatchFD(t *testing.T) {
	d := newTestDisplay()

	r, wr, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer wr.Close()

	ran := false
	stop := d.WatchFD(int(r.Fd()), unix.POLLIN, func() { ran = true })

	_, err = wr.Write([]byte{'x'})
	require.NoError(t, err)

	select {
	case <-d.wake:
	case <-time.After(5 * time.Second):
		t.Fatal("fd watch never woke the loop")
	}

	// Quiet the fd before stopping so the watcher cannot keep pushing
	// while we drain.
	buf := make([]byte, 1)
	_, err = r.Read(buf)
	require.NoError(t, err)
	stop()
	stop()

	d.drainTasks()
	assert.True(t, ran)
}
