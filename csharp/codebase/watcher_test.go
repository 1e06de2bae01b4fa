package codebase

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// verifyNoLeaks ignores the log writer goroutine that commonlog's backend
// starts for the life of the process.
func verifyNoLeaks(t *testing.T) {
	t.Helper()
	goleak.VerifyNone(t, goleak.IgnoreTopFunction("github.com/tliron/kutil/util.(*BufferedWriter).run"))
}

func waitChanges(t *testing.T, ch <-chan []Change) []Change {
	t.Helper()
	select {
	case changes := <-ch:
		return changes
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watcher")
		return nil
	}
}

func TestFileWatcher(t *testing.T) {
	defer verifyNoLeaks(t)

	root := writeTree(t, map[string]string{"Cart.cs": cartSrc})
	c := New(root)
	require.NoError(t, c.ScanFile(filepath.Join(root, "Cart.cs")))

	ch := make(chan []Change, 8)
	w, err := NewFileWatcher(c, WithDebounce(50*time.Millisecond), OnChange(func(changes []Change) {
		ch <- changes
	}))
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	order := filepath.Join(root, "Order.cs")
	require.NoError(t, os.WriteFile(order, []byte(orderSrc), 0o644))
	changes := waitChanges(t, ch)
	require.Len(t, changes, 1)
	assert.Equal(t, order, changes[0].Path)
	assert.NoError(t, changes[0].Err)
	assert.NotNil(t, c.FindType("Shop.Orders.Order"))

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.Remove(order))
	changes = waitChanges(t, ch)
	require.Len(t, changes, 1)
	assert.True(t, changes[0].Removed)
	assert.Nil(t, c.FindType("Shop.Orders.Order"))
	assert.NotNil(t, c.FindType("Shop.Cart"))
}

func TestFileWatcherNewDirectory(t *testing.T) {
	defer verifyNoLeaks(t)

	root := t.TempDir()
	c := New(root)
	ch := make(chan []Change, 8)
	w, err := NewFileWatcher(c, WithDebounce(50*time.Millisecond), OnChange(func(changes []Change) {
		ch <- changes
	}))
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	dir := filepath.Join(root, "src")
	require.NoError(t, os.Mkdir(dir, 0o755))
	// the new directory is watched asynchronously
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Broken.cs"), []byte(brokenSrc), 0o644))

	changes := waitChanges(t, ch)
	require.Len(t, changes, 1)
	assert.Error(t, changes[0].Err)
	require.Len(t, c.Errors(), 1)
}

func TestFileWatcherStopIsIdempotent(t *testing.T) {
	defer verifyNoLeaks(t)

	w, err := NewFileWatcher(New(t.TempDir()))
	require.NoError(t, err)
	require.NoError(t, w.Start())
	w.Stop()
	w.Stop()
}

func TestFileWatcherStopWithoutStart(t *testing.T) {
	defer verifyNoLeaks(t)

	w, err := NewFileWatcher(New(t.TempDir()))
	require.NoError(t, err)

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop blocked on a watcher that was never started")
	}
	assert.Error(t, w.Start(), "a stopped watcher cannot be restarted")
}
