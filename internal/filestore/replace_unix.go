//go:build unix

package filestore

import (
	"errors"
	"io/fs"

	"golang.org/x/sys/unix"
)

// preserveMetadata copies the target's permission bits and ownership onto
// the replacement file. Changing ownership needs privileges most editors
// lack, so EPERM from chown is tolerated.
func preserveMetadata(tmpPath, targetPath string, _ fs.FileInfo) error {
	var st unix.Stat_t
	if err := unix.Stat(targetPath, &st); err != nil {
		return err
	}
	if err := unix.Chmod(tmpPath, uint32(st.Mode)&0o7777); err != nil {
		return err
	}
	if err := unix.Chown(tmpPath, int(st.Uid), int(st.Gid)); err != nil &&
		!errors.Is(err, unix.EPERM) {
		return err
	}
	return nil
}

// replaceFile atomically renames tmpPath over targetPath.
func replaceFile(tmpPath, targetPath string) error {
	return unix.Rename(tmpPath, targetPath)
}

// syncDir flushes directory metadata so the rename survives a crash.
func syncDir(dir string) error {
	fd, err := unix.Open(dir, unix.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)
	return unix.Fsync(fd)
}
