package utils

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gomoku/backend/internal/logger"
)

// CleanupFunc represents a cleanup function
type CleanupFunc func() error

type namedCleanup struct {
	name string
	fn   CleanupFunc
}

// ResourceManager releases resources in reverse order of registration,
// so a resource is closed before the ones it depends on.
type ResourceManager struct {
	mu      sync.Mutex
	cleanup []namedCleanup
	done    bool
}

// NewResourceManager creates a new resource manager
func NewResourceManager() *ResourceManager {
	return &ResourceManager{}
}

// AddCleanupFunc adds a cleanup function to be executed during shutdown
func (rm *ResourceManager) AddCleanupFunc(name string, fn CleanupFunc) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.cleanup = append(rm.cleanup, namedCleanup{name: name, fn: fn})
}

// Cleanup runs every cleanup function once, even when some fail, and
// returns the joined errors. Later calls do nothing.
func (rm *ResourceManager) Cleanup() error {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.done {
		return nil
	}
	rm.done = true

	var errs []error
	for i := len(rm.cleanup) - 1; i >= 0; i-- {
		c := rm.cleanup[i]
		if err := c.fn(); err != nil {
			logger.Error("cleanup failed", fmt.Errorf("%s: %w", c.name, err))
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		logger.Debug("released " + c.name)
	}
	return errors.Join(errs...)
}
