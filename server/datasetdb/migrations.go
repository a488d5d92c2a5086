package datasetdb

import (
	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
)

func Migrations(log logs.Log) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE dataset(
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			created_at INT NOT NULL,
			updated_at INT NOT NULL
		);

		CREATE TABLE dataset_image(
			id INTEGER PRIMARY KEY,
			dataset_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			is_labeled BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at INT NOT NULL
		);
		CREATE UNIQUE INDEX idx_dataset_image_dataset_id_name ON dataset_image(dataset_id, name);
	`))

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE dataset_label(
			id INTEGER PRIMARY KEY,
			dataset_id BIGINT NOT NULL,
			name TEXT NOT NULL
		);
		CREATE UNIQUE INDEX idx_dataset_label_dataset_id_name ON dataset_label(dataset_id, name);
	`))

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		ALTER TABLE dataset_image ADD COLUMN size BIGINT NOT NULL DEFAULT 0;
	`))

	return migs
}
