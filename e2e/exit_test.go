//go:build e2e && unix

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestApplicationExit(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	srv := newGreetingServer(t)
	err := tf.StartApp("--endpoint", srv.URL)
	require.NoError(t, err, "Failed to start app")

	// Wait for TUI to initialize and render
	require.True(t, tf.Ready(), "Should render the first frame")

	// Clear any buffered output first
	tf.Snapshot()

	// Set up exit monitoring before sending Esc
	done := make(chan error, 1)
	go func() {
		done <- tf.cmd.Wait()
	}()

	t.Logf("Sending Esc to quit application...")
	tf.Quit()

	select {
	case exitErr := <-done:
		if exitErr == nil {
			t.Logf("Process exited cleanly with Esc")
		} else {
			t.Logf("Process exited with Esc (exit code: %v)", exitErr)
		}
		return
	case <-time.After(1500 * time.Millisecond):
		// If Esc didn't work within 1.5 seconds, use Ctrl+C
		t.Logf("Esc didn't work within 1.5 seconds, using Ctrl+C")
		tf.SendCtrlC()
	}

	// Wait for Ctrl+C to work
	select {
	case exitErr := <-done:
		t.Logf("Process exited with Ctrl+C (exit code: %v)", exitErr)
	case <-time.After(750 * time.Millisecond):
		t.Error("Application did not exit within total timeout")
		tf.DumpTailOnFail(t, "exit-failure", 4096) // Debug output
		tf.SendCtrlC()                             // Force exit again
	}
}

func TestApplicationExitWhilePending(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	srv := newGreetingServer(t)
	srv.hold("Slow")

	require.NoError(t, tf.StartApp("--endpoint", srv.URL))
	require.True(t, tf.Ready(), "Should render the first frame")

	require.NoError(t, tf.Submit("Slow"))
	require.True(t, tf.SeePlain("Loading..."), "Should show the loading branch")

	done := make(chan error, 1)
	go func() {
		done <- tf.cmd.Wait()
	}()

	tf.SendCtrlC()

	select {
	case exitErr := <-done:
		require.NoError(t, exitErr, "quitting with a request in flight should exit cleanly")
	case <-time.After(3 * time.Second):
		tf.DumpTailOnFail(t, "exit-pending-failure", 4096)
		t.Fatal("app did not exit with a request in flight")
	}
}
