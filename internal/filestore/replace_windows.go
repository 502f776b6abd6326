//go:build windows

package filestore

import (
	"io/fs"
	"os"

	"golang.org/x/sys/windows"
)

// preserveMetadata carries the read-only attribute of the target over.
func preserveMetadata(tmpPath, _ string, info fs.FileInfo) error {
	return os.Chmod(tmpPath, info.Mode().Perm())
}

// replaceFile moves tmpPath over targetPath, flushing before returning.
func replaceFile(tmpPath, targetPath string) error {
	from, err := windows.UTF16PtrFromString(tmpPath)
	if err != nil {
		return err
	}
	to, err := windows.UTF16PtrFromString(targetPath)
	if err != nil {
		return err
	}
	return windows.MoveFileEx(from, to, windows.MOVEFILE_REPLACE_EXISTING|windows.MOVEFILE_WRITE_THROUGH)
}

// syncDir is a no-op; MOVEFILE_WRITE_THROUGH already flushed the move.
func syncDir(string) error {
	return nil
}
