//go:build !linux && !darwin

package regfile

import (
	"io"
	"os"
)

// mapReadOnly falls back to reading the whole file into memory on platforms
// without a mmap binding wired up (e.g. windows, where hivekit's own mmap
// path lives behind a separate build-tagged file this module doesn't carry).
func mapReadOnly(f *os.File, size int64) ([]byte, func() error, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, nil, err
	}
	return data, func() error { return nil }, nil
}
