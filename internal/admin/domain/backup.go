package domain

// BackupVersion is written into every export.
const BackupVersion = "1.0.0"

// Backup is the export/restore document for the whole catalog. Timestamp is
// unix milliseconds at export time.
type Backup struct {
	Scripts   []Script `json:"scripts"`
	Settings  Settings `json:"settings"`
	Version   string   `json:"version"`
	Timestamp int64    `json:"timestamp"`
}
