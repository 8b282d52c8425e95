package format

import "io/fs"

// Common file permission constants used throughout the application.
const (
	// DirUserOnly is for private working directories such as extracted corpora (rwx------)
	DirUserOnly fs.FileMode = 0700

	// FileUserReadWrite is for files that should only be readable by owner (rw-------)
	// Used for reports and logs, which name vault entries
	FileUserReadWrite fs.FileMode = 0600
)
