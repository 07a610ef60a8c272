// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Live holds the current catalog and swaps it atomically on reload.
type Live struct {
	current atomic.Pointer[Catalog]
}

// NewLive returns a Live holding c.
func NewLive(c *Catalog) *Live {
	l := &Live{}
	l.current.Store(c)
	return l
}

// Get returns the current catalog.
func (l *Live) Get() *Catalog { return l.current.Load() }

// Set replaces the current catalog.
func (l *Live) Set(c *Catalog) { l.current.Store(c) }

// Watch reloads the catalog at path whenever it changes and stores valid
// results in l. onReload, if non-nil, is called after every reload attempt;
// an invalid file leaves the previous catalog in place. The directory is
// watched rather than the file so editors that replace files by rename are
// followed. Watch blocks until ctx is done.
func (l *Live) Watch(ctx context.Context, path string, onReload func(*Catalog, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating catalog watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving catalog path: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			c, err := Load(path)
			if err == nil {
				l.Set(c)
			}
			if onReload != nil {
				onReload(c, err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if onReload != nil {
				onReload(nil, fmt.Errorf("catalog watcher: %w", err))
			}
		}
	}
}
