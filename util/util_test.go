package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent(t *testing.T) {
	e := NewEvent()
	assert.False(t, e.HasBeenNotified())
	assert.False(t, e.WaitTimeout(10*time.Millisecond))

	go e.Notify()
	e.Wait()
	assert.True(t, e.HasBeenNotified())
	assert.True(t, e.WaitTimeout(time.Millisecond))

	// Repeat notifications are harmless.
	e.Notify()
	select {
	case <-e.Done():
	default:
		t.Fatal("Done not closed")
	}
}

func TestLocateFFmpegFromEnv(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "ffmpeg")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755))

	t.Setenv("FFMPEG", bin)
	p, err := LocateFFmpeg()
	require.NoError(t, err)
	assert.Equal(t, bin, p)

	t.Setenv("FFMPEG", dir)
	_, err = LocateFFmpeg()
	assert.Error(t, err)

	t.Setenv("FFMPEG", filepath.Join(dir, "missing"))
	_, err = LocateFFmpeg()
	assert.ErrorIs(t, err, os.ErrNotExist)
}
