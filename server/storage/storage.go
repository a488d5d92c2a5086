// Package storage abstracts the blob store that holds dataset images and
// thumbnails. The filesystem backend is the default; Google Cloud Storage
// is for hosted deployments.
package storage

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cyclopcam/logs"
)

var ErrNoPublicURL = errors.New("storage backend has no public URLs")

// Storage is a blob store (filesystem, GCS).
type Storage interface {
	// When finished, you must close the WriteCloser
	WriteFile(name string) (io.WriteCloser, error)

	// When finished, you must close File.Reader
	ReadFile(name string) (*File, error)

	DeleteFile(name string) error

	// URL returns a public URL for the blob, or ErrNoPublicURL
	URL(name string) (string, error)
}

// File is an element in blob storage.
type File struct {
	Reader     io.ReadCloser
	ModifiedAt time.Time
	Size       int64
}

// NewStorage builds a backend from config. kind is "fs" or "gcs";
// location is the root directory or the bucket name respectively.
func NewStorage(logger logs.Log, kind, location string) (Storage, error) {
	switch kind {
	case "", "fs":
		return NewStorageFS(logger, location)
	case "gcs":
		return NewStorageGCS(logger, location, false)
	}
	return nil, fmt.Errorf("Unknown storage kind '%v'. Valid kinds are 'fs' and 'gcs'", kind)
}

// ImageBlobName is the canonical key of a dataset image's bytes.
func ImageBlobName(datasetID int64, imageName string) string {
	return fmt.Sprintf("datasets/%v/images/%v", datasetID, imageName)
}

// ThumbBlobName is the canonical key of a dataset image's thumbnail.
func ThumbBlobName(datasetID int64, imageName string) string {
	return fmt.Sprintf("datasets/%v/thumbs/%v.jpg", datasetID, imageName)
}

func WriteFile(s Storage, name string, content io.Reader) error {
	f, err := s.WriteFile(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(f, content)
	errClose := f.Close()
	if err != nil {
		return err
	}
	return errClose
}

func ReadFile(s Storage, name string) ([]byte, error) {
	f, err := s.ReadFile(name)
	if err != nil {
		return nil, err
	}
	defer f.Reader.Close()
	return io.ReadAll(f.Reader)
}
