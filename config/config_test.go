package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, Size{640, 640}, c.Video)
	assert.Equal(t, Size{300, 300}, c.Model)
	assert.Equal(t, 1917, c.DetectionMax)
	assert.Equal(t, 91, c.LabelSize)
	assert.Equal(t, float32(0.5), c.Detection.ScoreThreshold)
	assert.Equal(t, 0, c.Detection.MaxObjects)
	assert.Equal(t, "NNStreamer Example", c.Display.Title)

	// Only the video is missing.
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "video path not set")
	c.VideoPath = "v.mp4"
	assert.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	c := Default()
	c.VideoPath = "v.mp4"
	c.Detection.ScoreThreshold = 1.5
	c.Notify.DBDriver = "postgres"
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "score threshold")
	assert.Contains(t, err.Error(), "postgres")
}

func TestValidateDisplayFPS(t *testing.T) {
	c := Default()
	c.VideoPath = "v.mp4"
	require.NoError(t, c.Validate())

	c.Display.Record = "out.mp4"
	c.Display.FPS = 0
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "display fps 0")

	c.Display.FPS = -5
	assert.Error(t, c.Validate())
}

func writeConfig(t *testing.T, path, body string) {
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, path, `{"VideoPath": "in.mp4", "Detection": {"ScoreThreshold": 0.7, "IOUThreshold": 0.4}}`)

	c, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "in.mp4", c.VideoPath)
	assert.Equal(t, float32(0.7), c.Detection.ScoreThreshold)
	// Unset fields keep their defaults.
	assert.Equal(t, 1917, c.DetectionMax)

	writeConfig(t, path, `{"Bogus": 1}`)
	_, err = FromFile(path)
	assert.Error(t, err)

	_, err = FromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestStoreApplyOnlyTunables(t *testing.T) {
	base := Default()
	base.VideoPath = "a.mp4"
	s := NewStore(base)

	var got *Config
	s.OnChange(func(c *Config) { got = c })

	next := Default()
	next.VideoPath = "b.mp4"
	next.Detection.MaxObjects = 3
	next.Notify.Threshold = 0.9
	require.NoError(t, s.Apply(next))

	c := s.Get()
	assert.Equal(t, "a.mp4", c.VideoPath)
	assert.Equal(t, 3, c.Detection.MaxObjects)
	assert.Equal(t, float32(0.9), c.Notify.Threshold)
	assert.Same(t, c, got)
	// The value passed in is untouched.
	assert.Equal(t, 0, base.Detection.MaxObjects)

	next.Detection.IOUThreshold = 2
	assert.Error(t, s.Apply(next))
	assert.Equal(t, 3, s.Get().Detection.MaxObjects)
}

func TestStoreWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, path, `{"VideoPath": "in.mp4"}`)
	c, err := FromFile(path)
	require.NoError(t, err)
	s := NewStore(c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Watch(ctx, path)

	assert.Eventually(t, func() bool {
		// Rewrite until the watcher has been set up and picks it up.
		writeConfig(t, path, `{"VideoPath": "in.mp4", "Detection": {"ScoreThreshold": 0.5, "IOUThreshold": 0.5, "MaxObjects": 5}}`)
		return s.Get().Detection.MaxObjects == 5
	}, 5*time.Second, 200*time.Millisecond)
}
