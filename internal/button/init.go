package button

import (
	"sync"

	"github.com/sweeney/pushbutton/internal/config"
)

var (
	defaultMu  sync.Mutex
	defaultReg *Registry
)

// Init creates the process-wide Registry on first use. Later calls return
// the same Registry and ignore their arguments. A failed call leaves the
// library uninitialized, so it can be retried.
func Init(acc Accessor, opts ...Option) (*Registry, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultReg != nil {
		return defaultReg, nil
	}
	r, err := New(acc, opts...)
	if err != nil {
		return nil, err
	}
	defaultReg = r
	return r, nil
}

// InitFile loads the button configuration at path and calls Init with it.
func InitFile(path string, opts ...Option) (*Registry, error) {
	defaultMu.Lock()
	r := defaultReg
	defaultMu.Unlock()
	if r != nil {
		return r, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return Init(cfg, opts...)
}

// Default returns the process-wide Registry, or nil before Init.
// Operations on the nil Registry fail with ErrNotInitialized.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultReg
}
