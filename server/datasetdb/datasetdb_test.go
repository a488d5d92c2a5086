package datasetdb

import (
	"path/filepath"
	"testing"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DatasetDB {
	db, err := NewDatasetDB(logs.NewTestingLog(t), dbh.MakeSqliteConfig(filepath.Join(t.TempDir(), "datasets.sqlite")))
	require.NoError(t, err)
	return db
}

func TestDatasetCRUD(t *testing.T) {
	db := openTestDB(t)

	_, err := db.CreateDataset("bad", "segmentation")
	require.Error(t, err)

	ds, err := db.CreateDataset("woodblocks", DatasetTypeDetection)
	require.NoError(t, err)
	require.NotZero(t, ds.ID)

	require.NoError(t, db.RenameDataset(ds.ID, "woodblocks-1915"))
	got, err := db.GetDataset(ds.ID)
	require.NoError(t, err)
	require.Equal(t, "woodblocks-1915", got.Name)

	list, err := db.ListDatasets()
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = db.DeleteDataset(ds.ID)
	require.NoError(t, err)
	_, err = db.GetDataset(ds.ID)
	require.Error(t, err)
}

func TestReconcileChunk(t *testing.T) {
	db := openTestDB(t)
	ds, err := db.CreateDataset("pages", DatasetTypeDetection)
	require.NoError(t, err)

	// First save: three images in one chunk
	removed, err := db.ReconcileChunk(ds.ID, []string{"a.jpg", "b.jpg", "c.jpg"}, []ImageUpsert{
		{Name: "a.jpg", Label: "{}", IsLabeled: true, Size: 100},
		{Name: "b.jpg", Size: 200},
		{Name: "c.jpg", Size: 300},
	})
	require.NoError(t, err)
	require.Len(t, removed, 0)

	images, err := db.ListImages(ds.ID)
	require.NoError(t, err)
	require.Len(t, images, 3)

	// Second save: b.jpg was removed from the session, a.jpg relabeled.
	// The chunk only carries a.jpg, but the inventory drives deletion.
	removed, err = db.ReconcileChunk(ds.ID, []string{"a.jpg", "c.jpg"}, []ImageUpsert{
		{Name: "a.jpg", Label: `{"v":2}`, IsLabeled: true, Size: 100},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"b.jpg"}, removed)

	images, err = db.ListImages(ds.ID)
	require.NoError(t, err)
	require.Len(t, images, 2)

	a, err := db.GetImage(ds.ID, "a.jpg")
	require.NoError(t, err)
	require.Equal(t, `{"v":2}`, a.Label)

	// c.jpg was in a different chunk of the same save, untouched here
	c, err := db.GetImage(ds.ID, "c.jpg")
	require.NoError(t, err)
	require.Equal(t, int64(300), c.Size)
}

func TestLabelVocabulary(t *testing.T) {
	db := openTestDB(t)
	ds, err := db.CreateDataset("pages", DatasetTypeDetection)
	require.NoError(t, err)

	require.NoError(t, db.AddLabels(ds.ID, []string{"人", "天", ""}))
	require.NoError(t, db.AddLabels(ds.ID, []string{"天", "地"}))

	labels, err := db.Labels(ds.ID)
	require.NoError(t, err)
	require.Len(t, labels, 3)
	// First-added order is preserved, duplicates and blanks dropped
	require.Equal(t, "人", labels[0].Name)
	require.Equal(t, "天", labels[1].Name)
	require.Equal(t, "地", labels[2].Name)
}

func TestDeleteDatasetReturnsImageNames(t *testing.T) {
	db := openTestDB(t)
	ds, err := db.CreateDataset("pages", DatasetTypeClassification)
	require.NoError(t, err)

	_, err = db.ReconcileChunk(ds.ID, []string{"x.jpg", "y.jpg"}, []ImageUpsert{
		{Name: "x.jpg", Label: "seal-script", IsLabeled: true},
		{Name: "y.jpg"},
	})
	require.NoError(t, err)

	names, err := db.DeleteDataset(ds.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"x.jpg", "y.jpg"}, names)
}
