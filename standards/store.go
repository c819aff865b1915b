package standards

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/carbocation/pfx"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Store holds the process-wide current Config next to the immutable default
// used by Reset. Readers always observe a complete Config: updates swap the
// whole value or nothing.
type Store struct {
	current atomic.Pointer[Config]
	initial Config
}

// NewStore starts with def as both the current and the reset value. def must
// be valid; use Default() when in doubt.
func NewStore(def Config) *Store {
	s := &Store{initial: def}
	c := def
	s.current.Store(&c)
	return s
}

// Current returns a copy of the active Config.
func (s *Store) Current() Config {
	return *s.current.Load()
}

// Default returns the value Reset restores.
func (s *Store) Default() Config {
	return s.initial
}

// Replace validates c and installs it. An invalid c leaves the current Config
// untouched.
func (s *Store) Replace(c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.current.Store(&c)
	return nil
}

// Reset restores the default and returns it.
func (s *Store) Reset() Config {
	c := s.initial
	s.current.Store(&c)
	return c
}

// LoadFile parses the document at path and installs it. On any error the
// previous Config stays in place.
func (s *Store) LoadFile(path string) (Config, error) {
	c, err := ParseFile(path)
	if err != nil {
		return s.Current(), err
	}

	if err := s.Replace(c); err != nil {
		return s.Current(), err
	}

	return c, nil
}

// Watch reloads path whenever it is written until ctx is done. The parent
// directory is watched, not the file, so that editors which save by rename
// are picked up. Rejected documents are logged and otherwise ignored.
func (s *Store) Watch(ctx context.Context, path string, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return pfx.Err(err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return pfx.Err(err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return pfx.Err(err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("standards watcher error", zap.Error(err))
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if _, err := s.LoadFile(abs); err != nil {
				log.Warn("rejected standards document, keeping previous", zap.String("path", abs), zap.Error(err))
				continue
			}
			log.Info("reloaded standards", zap.String("path", abs))
		}
	}
}
