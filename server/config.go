package server

import (
	"github.com/cyclopcam/dbh"
)

type Config struct {
	DB           dbh.DBConfig  `json:"db"`
	ImageStorage StorageConfig `json:"imageStorage"`

	// Largest request body the save endpoint accepts, eg "50mb".
	// Empty means the saver package default.
	MaxChunkSize string `json:"maxChunkSize"`
}

// One of the storage options must be configured (i.e. either 'filesystem' or 'gcs')
type StorageConfig struct {
	Filesystem *StorageConfigFS  `json:"filesystem"`
	GCS        *StorageConfigGCS `json:"gcs"`
}

type StorageConfigFS struct {
	Root string `json:"root"` // Path to the root of the filesystem
}

type StorageConfigGCS struct {
	Bucket string `json:"bucket"` // Name of the GCS bucket
	Public bool   `json:"public"` // Whether the bucket is public, which lets us hand out direct GCS URLs
}
