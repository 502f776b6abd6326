//go:build !unix && !windows

package filestore

import (
	"io/fs"
	"os"
)

func preserveMetadata(tmpPath, _ string, info fs.FileInfo) error {
	return os.Chmod(tmpPath, info.Mode().Perm())
}

// replaceFile falls back to an overwriting move.
func replaceFile(tmpPath, targetPath string) error {
	return os.Rename(tmpPath, targetPath)
}

func syncDir(string) error {
	return nil
}
