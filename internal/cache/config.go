package cache

import (
	"os"
	"sync"

	"github.com/RedstoneMedia/pictocrab/internal/errs"
	"github.com/RedstoneMedia/pictocrab/internal/lockfile"
)

// Config is the process-wide configuration set exactly once by the first
// `setup` command (spec.md §3, §6.4). A second setup call is a silent
// no-op, matching the original's `CACHE_DIR.set(...).expect("Can only
// setup once!")` guarded by a prior `if CACHE_DIR.get().is_some()`
// check.
//
// disk_cache_dir is not known until setup runs, so (unlike the original's
// OnceCell<String>, which is still just a global read by get_disk_cache_path
// at insert time) Cache holds a *Config rather than a fixed directory
// string; every disk-tier operation resolves the directory dynamically
// through it.
type Config struct {
	DiskCacheDir  string
	WorkingDir    string
	ThreadedReads bool

	mu   sync.Mutex
	set  bool
	lock *lockfile.Lock
}

// Setup applies disk cache dir, working dir, and the threaded-reads flag
// the first time it is called; subsequent calls are silent no-ops. It
// creates disk_cache_dir if needed (spec.md §6.4: "Must be writable"),
// takes an advisory cross-process lock on it (SPEC_FULL.md's
// lockfile addition, so two daemons never share one directory's id
// numbering), and changes the process's working directory so that
// relative paths in subsequent get/gets requests resolve against
// workingDir, matching original_source/src/main.rs's
// `std::env::set_current_dir`.
//
// A failed step leaves the config unset so a later setup call may
// retry, rather than wedging the process the way a sync.Once guard
// would.
func (c *Config) Setup(diskCacheDir, workingDir string, threadedReads bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set {
		return nil
	}
	if err := os.MkdirAll(diskCacheDir, 0o755); err != nil {
		return &errs.ConfigError{Msg: "disk cache dir " + diskCacheDir + ": " + err.Error()}
	}
	lock, err := lockfile.Acquire(diskCacheDir)
	if err != nil {
		return &errs.ConfigError{Msg: err.Error()}
	}
	if err := os.Chdir(workingDir); err != nil {
		lock.Release()
		return &errs.ConfigError{Msg: "chdir " + workingDir + ": " + err.Error()}
	}
	c.DiskCacheDir = diskCacheDir
	c.WorkingDir = workingDir
	c.ThreadedReads = threadedReads
	c.lock = lock
	c.set = true
	return nil
}

// IsSet reports whether Setup has already completed successfully.
func (c *Config) IsSet() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set
}

// Close releases the advisory lock on the disk cache directory, if one
// was acquired. Safe to call even if Setup never succeeded.
func (c *Config) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lock.Release()
}

// ThreadedReadsEnabled reports the configured threaded-reads flag,
// satisfying internal/fetch.Config. Like disk_cache_dir, it is read
// dynamically rather than captured once, since it is unset until
// Setup succeeds.
func (c *Config) ThreadedReadsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ThreadedReads
}

// dir returns the configured disk cache directory. Disk-tier operations
// are only reachable after Setup has succeeded (internal/server gates
// get/gets on Config.IsSet), so an empty string here would indicate a
// caller bug rather than a reachable runtime state.
func (c *Config) dir() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.DiskCacheDir
}
