//go:build linux || darwin

package regfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// mapReadOnly mmaps f read-only. The returned closer munmaps the region.
func mapReadOnly(f *os.File, size int64) ([]byte, func() error, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	closer := func() error {
		return unix.Munmap(data)
	}
	return data, closer, nil
}
