package datasetdb

import (
	"github.com/cyclopcam/dbh"
)

const (
	DatasetTypeDetection      = "detection"
	DatasetTypeClassification = "classification"
)

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

type Dataset struct {
	BaseModel
	Name      string        `json:"name"`
	Type      string        `json:"type"` // detection | classification
	CreatedAt dbh.MilliTime `json:"createdAt"`
	UpdatedAt dbh.MilliTime `json:"updatedAt"`
}

// DatasetImage is one image registered in a dataset. Label holds the
// serialized annotation payload (COCO JSON for detection datasets, a
// plain class name for classification). The image bytes live in blob
// storage under storage.ImageBlobName.
type DatasetImage struct {
	BaseModel
	DatasetID int64         `json:"datasetId"`
	Name      string        `json:"name"`
	Label     string        `json:"label"`
	IsLabeled bool          `json:"isLabeled"`
	Size      int64         `json:"size"` // image bytes, not label bytes
	UpdatedAt dbh.MilliTime `json:"updatedAt"`
}

// DatasetLabel is one entry of a dataset's label vocabulary. Vocabulary
// IDs are assigned once and never reused, which is what gives labels a
// stable identity across exports.
type DatasetLabel struct {
	BaseModel
	DatasetID int64  `json:"datasetId"`
	Name      string `json:"name"`
}
