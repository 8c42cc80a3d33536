package store

import "time"

// Asset is one ledger row: an imported file and the kind it was classified as.
type Asset struct {
	ID         int64
	Path       string
	Kind       string
	Hash       string
	Size       int64
	ImportedAt time.Time
}
