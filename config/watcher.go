package config

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// FromFile reads a JSON config over the defaults.
func FromFile(path string) (*Config, error) {
	config := Default()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p := json.NewDecoder(f)
	p.DisallowUnknownFields()
	if err := p.Decode(config); err != nil {
		return nil, err
	}
	log.Infof("Loaded configuration: %v", spew.Sdump(config))
	return config, nil
}

// Store holds the active configuration. Only the runtime tunable settings
// change after start-up.
type Store struct {
	l sync.RWMutex
	c *Config

	listeners []func(*Config)
}

func NewStore(c *Config) *Store {
	return &Store{c: c}
}

// Get returns the current configuration, which must not be modified.
func (s *Store) Get() *Config {
	s.l.RLock()
	defer s.l.RUnlock()
	return s.c
}

// OnChange registers f to be called after each successful reload.
func (s *Store) OnChange(f func(*Config)) {
	s.l.Lock()
	defer s.l.Unlock()
	s.listeners = append(s.listeners, f)
}

// Apply merges the tunable settings of next into the current configuration.
func (s *Store) Apply(next *Config) error {
	if err := next.Detection.validate(); err != nil {
		return err
	}
	s.l.Lock()
	merged := *s.c
	merged.Detection = next.Detection
	merged.Notify.Threshold = next.Notify.Threshold
	s.c = &merged
	listeners := append([]func(*Config){}, s.listeners...)
	s.l.Unlock()

	for _, f := range listeners {
		f(&merged)
	}
	return nil
}

func waitForChange(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-watcher.Events:
	case err := <-watcher.Errors:
		return err
	}
	// Editors often write in several steps.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Second / 10):
	}
	return ctx.Err()
}

// Watch reloads path on change until ctx is done.
func (s *Store) Watch(ctx context.Context, path string) {
	go func() {
		for ctx.Err() == nil {
			if err := waitForChange(ctx, path); err != nil {
				if ctx.Err() == nil {
					log.Errorf("Error waiting for file change: %v", err)
					// Avoid spinning if the file has gone away.
					select {
					case <-ctx.Done():
					case <-time.After(time.Second):
					}
				}
				continue
			}

			config, err := FromFile(path)
			if err != nil {
				log.Errorf("Failed to load new config: %v", err)
				continue
			}
			if err := s.Apply(config); err != nil {
				log.Errorf("Rejected new config: %v", err)
				continue
			}
			log.Infof("Reloaded configuration from %v", path)
		}
	}()
}
