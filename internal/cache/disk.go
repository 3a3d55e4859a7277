package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RedstoneMedia/pictocrab/internal/errs"
)

// diskPath returns the path for a disk-tier entry, matching spec.md
// §6.2's flat "{id}.bmp" layout. Unlike meigma-blob/cache/disk's
// hex-sharded layout, no subdirectory indirection is used: the id is a
// small monotonically increasing integer, not a hash, so sharding would
// only add directories without bounding any one directory's size.
func diskPath(dir string, id int) string {
	return filepath.Join(dir, fmt.Sprintf("%d.bmp", id))
}

func writeDiskEntry(dir string, id int, data []byte) error {
	if err := os.WriteFile(diskPath(dir, id), data, 0o644); err != nil {
		return &errs.CacheIOError{Op: "write", Err: err}
	}
	return nil
}

func readDiskEntry(dir string, id int) ([]byte, error) {
	b, err := os.ReadFile(diskPath(dir, id))
	if err != nil {
		return nil, &errs.CacheIOError{Op: "read", Err: err}
	}
	return b, nil
}

func removeDiskEntry(dir string, id int) error {
	if err := os.Remove(diskPath(dir, id)); err != nil {
		return &errs.CacheIOError{Op: "remove", Err: err}
	}
	return nil
}
