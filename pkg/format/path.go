package format

import (
	"os"
)

func IsDirectory(path string) bool {
	fileInfo, err := os.Stat(path)
	if err != nil {
		// Treat non-existent paths as directories so callers never try to read them
		return true
	}
	return fileInfo.IsDir()
}
