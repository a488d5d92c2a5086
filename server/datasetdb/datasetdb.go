// Package datasetdb is the registry of annotation datasets: the dataset
// table, the per-image rows that the chunked save endpoint reconciles,
// and the label vocabulary that gives labels stable identity across
// exports (COCO category IDs are only stable within one file).
package datasetdb

import (
	"fmt"
	"time"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"gorm.io/gorm"
)

type DatasetDB struct {
	Log logs.Log
	DB  *gorm.DB
}

func NewDatasetDB(logger logs.Log, config dbh.DBConfig) (*DatasetDB, error) {
	db, err := dbh.OpenDB(logger, config, Migrations(logger), 0)
	if err != nil {
		return nil, fmt.Errorf("Failed to open dataset database: %w", err)
	}
	return &DatasetDB{
		Log: logger,
		DB:  db,
	}, nil
}

func (d *DatasetDB) CreateDataset(name, dtype string) (*Dataset, error) {
	if dtype != DatasetTypeDetection && dtype != DatasetTypeClassification {
		return nil, fmt.Errorf("Invalid dataset type '%v'. Valid types are '%v' and '%v'", dtype, DatasetTypeDetection, DatasetTypeClassification)
	}
	ds := Dataset{
		Name:      name,
		Type:      dtype,
		CreatedAt: dbh.Milli(time.Now().UTC()),
		UpdatedAt: dbh.Milli(time.Now().UTC()),
	}
	if err := d.DB.Create(&ds).Error; err != nil {
		return nil, err
	}
	return &ds, nil
}

func (d *DatasetDB) GetDataset(id int64) (*Dataset, error) {
	ds := Dataset{}
	if err := d.DB.First(&ds, id).Error; err != nil {
		return nil, err
	}
	return &ds, nil
}

func (d *DatasetDB) ListDatasets() ([]Dataset, error) {
	list := []Dataset{}
	if err := d.DB.Order("id").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DatasetDB) RenameDataset(id int64, name string) error {
	return d.DB.Model(&Dataset{}).Where("id = ?", id).
		Updates(map[string]any{"name": name, "updated_at": dbh.Milli(time.Now().UTC())}).Error
}

// DeleteDataset removes the dataset and all its rows, and returns the
// image names that were registered, so the caller can delete their blobs.
func (d *DatasetDB) DeleteDataset(id int64) ([]string, error) {
	names := []string{}
	err := d.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&DatasetImage{}).Where("dataset_id = ?", id).Pluck("name", &names).Error; err != nil {
			return err
		}
		if err := tx.Delete(&DatasetImage{}, "dataset_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&DatasetLabel{}, "dataset_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&Dataset{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (d *DatasetDB) ListImages(datasetID int64) ([]DatasetImage, error) {
	list := []DatasetImage{}
	if err := d.DB.Where("dataset_id = ?", datasetID).Order("name").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DatasetDB) GetImage(datasetID int64, name string) (*DatasetImage, error) {
	img := DatasetImage{}
	if err := d.DB.First(&img, "dataset_id = ? AND name = ?", datasetID, name).Error; err != nil {
		return nil, err
	}
	return &img, nil
}

// ImageUpsert is one image of a save chunk.
type ImageUpsert struct {
	Name      string
	Label     string
	IsLabeled bool
	Size      int64
}

// ReconcileChunk applies one chunk of a save. allImages is the full
// inventory of the session: rows whose name is not in it are deleted, and
// their names returned so the caller can delete the blobs. The chunk's
// own rows are inserted or updated.
func (d *DatasetDB) ReconcileChunk(datasetID int64, allImages []string, chunk []ImageUpsert) ([]string, error) {
	keep := map[string]bool{}
	for _, name := range allImages {
		keep[name] = true
	}

	removed := []string{}
	err := d.DB.Transaction(func(tx *gorm.DB) error {
		existing := []DatasetImage{}
		if err := tx.Where("dataset_id = ?", datasetID).Find(&existing).Error; err != nil {
			return err
		}
		byName := map[string]*DatasetImage{}
		for i := range existing {
			row := &existing[i]
			if !keep[row.Name] {
				removed = append(removed, row.Name)
				if err := tx.Delete(&DatasetImage{}, row.ID).Error; err != nil {
					return err
				}
				continue
			}
			byName[row.Name] = row
		}

		now := dbh.Milli(time.Now().UTC())
		for _, img := range chunk {
			if row, ok := byName[img.Name]; ok {
				row.Label = img.Label
				row.IsLabeled = img.IsLabeled
				row.Size = img.Size
				row.UpdatedAt = now
				if err := tx.Save(row).Error; err != nil {
					return err
				}
			} else {
				row := DatasetImage{
					DatasetID: datasetID,
					Name:      img.Name,
					Label:     img.Label,
					IsLabeled: img.IsLabeled,
					Size:      img.Size,
					UpdatedAt: now,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
		}

		return tx.Model(&Dataset{}).Where("id = ?", datasetID).Update("updated_at", now).Error
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// AddLabels extends the dataset's label vocabulary. Existing labels are
// left untouched, so vocabulary IDs are stable for the dataset's lifetime.
func (d *DatasetDB) AddLabels(datasetID int64, labels []string) error {
	return d.DB.Transaction(func(tx *gorm.DB) error {
		existing := []DatasetLabel{}
		if err := tx.Where("dataset_id = ?", datasetID).Find(&existing).Error; err != nil {
			return err
		}
		seen := map[string]bool{}
		for _, l := range existing {
			seen[l.Name] = true
		}
		for _, name := range labels {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			if err := tx.Create(&DatasetLabel{DatasetID: datasetID, Name: name}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *DatasetDB) Labels(datasetID int64) ([]DatasetLabel, error) {
	list := []DatasetLabel{}
	if err := d.DB.Where("dataset_id = ?", datasetID).Order("id").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
