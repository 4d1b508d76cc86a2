// Package app wires the blog example: it registers the table metadata, seeds the
// schema, and walks through the mapper's fetch, transaction, and export paths.
package app

import (
	"context"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/adapter/database"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/adapter/storage"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/config"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/metadata"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/export"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/mapper"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/logger"
)

// NewMetadataRegistry registers the example's table metadata.
// This function is intended to be used as an Fx provider.
func NewMetadataRegistry() (*metadata.Registry, error) {
	registry := metadata.NewRegistry()
	err := registry.Register(&metadata.Table{
		Name:          "posts",
		Columns:       []string{"id", "title", "body", "views"},
		PrimaryKey:    []string{"id"},
		AutoIncrement: true,
		Defaults:      map[string]interface{}{"views": int64(0)},
	})
	if err != nil {
		return nil, err
	}
	return registry, nil
}

// seedSchema creates the example table. Schema management is the application's
// concern; the mapper itself never issues DDL.
func seedSchema(ctx context.Context, conn *database.SQLConnAdapter) error {
	_, err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		views INTEGER NOT NULL DEFAULT 0
	)`)
	return err
}

// Run walks through the mapper's surface: a transactional insert batch, an
// identity-mapped fetch, a dirty update, an idempotent delete, and a Parquet export.
func Run(ctx context.Context, cfg *config.Config, conn *database.SQLConnAdapter, locator *mapper.Locator, storageConn storage.Connection) error {
	if err := seedSchema(ctx, conn); err != nil {
		return err
	}

	posts, err := locator.Mapper("posts")
	if err != nil {
		return err
	}

	first, err := posts.NewRecord(map[string]interface{}{"title": "Hello, Atlas", "body": "unit of work"})
	if err != nil {
		return err
	}
	second, err := posts.NewRecord(map[string]interface{}{"title": "Identity maps", "body": "one row, one instance"})
	if err != nil {
		return err
	}

	t := posts.NewTransaction()
	if err := t.Insert(first); err != nil {
		return err
	}
	if err := t.Insert(second); err != nil {
		return err
	}
	if !t.Exec(ctx) {
		return t.Err()
	}
	logger.Infof("committed %d insert(s)", len(t.Completed()))

	id, _ := first.Get("id")
	fetched, found, err := posts.FetchRecord(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		logger.Warnf("post %v vanished between insert and fetch", id)
		return nil
	}
	// Same identity, same Row instance: the fetch resolved through the identity map.
	logger.Infof("fetched post %v (same row instance: %t)", id, fetched.Row() == first.Row())

	if err := fetched.Set("views", int64(1)); err != nil {
		return err
	}
	if applied := posts.Update(ctx, fetched); !applied {
		if err := posts.LastError(); err != nil {
			return err
		}
		logger.Infof("update skipped: nothing to write")
	}

	all, err := posts.FetchRecordSetBy(ctx, nil, 0)
	if err != nil {
		return err
	}
	exporter, err := export.NewParquetExporter(map[string]interface{}{
		"output_base_dir":  cfg.Atlas.Export.OutputBaseDir,
		"compression_type": cfg.Atlas.Export.CompressionType,
	}, storageConn)
	if err != nil {
		return err
	}
	objectName, err := exporter.Export(ctx, all)
	if err != nil {
		return err
	}
	logger.Infof("exported %d post(s) to %s", all.Len(), objectName)

	if applied := posts.Delete(ctx, second); !applied {
		if err := posts.LastError(); err != nil {
			return err
		}
	}
	// A second delete of the same storage row would report a no-op, not an error.
	logger.Infof("done; identity map holds %d row(s)", posts.IdentityMap().Len())
	return nil
}
