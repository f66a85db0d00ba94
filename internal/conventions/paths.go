package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default jobpace data directory name (relative to home).
	DefaultDataDir = ".jobpace"
	// DBFile is the filename of the duration history database.
	DBFile = "jobpace.db"
)

// DBPath returns the full path to the duration history database.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, DBFile)
}
