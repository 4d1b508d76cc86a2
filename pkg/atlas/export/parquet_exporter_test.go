package export_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/adapter/storage/local"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/metadata"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/record"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/row"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/export"
)

func newPostsSet(t *testing.T, titles ...string) *record.RecordSet {
	t.Helper()
	table := &metadata.Table{
		Name:       "posts",
		Columns:    []string{"id", "title", "views", "published"},
		PrimaryKey: []string{"id"},
	}
	set := record.NewRecordSet()
	for i, title := range titles {
		r, err := row.NewCleanRow(table, map[string]interface{}{
			"id":        int64(i + 1),
			"title":     title,
			"views":     int64(i * 10),
			"published": i%2 == 0,
		})
		require.NoError(t, err)
		set.Append(record.NewRecord(r, nil))
	}
	return set
}

func TestParquetExporter_ExportUploadsOneFile(t *testing.T) {
	conn, err := local.NewLocalAdapter(t.TempDir(), "export-test")
	require.NoError(t, err)
	defer conn.Close()

	exporter, err := export.NewParquetExporter(map[string]interface{}{
		"output_base_dir":  "export",
		"compression_type": "SNAPPY",
	}, conn)
	require.NoError(t, err)

	objectName, err := exporter.Export(context.Background(), newPostsSet(t, "a", "b", "c"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(objectName, "export/posts/"))
	assert.True(t, strings.HasSuffix(objectName, ".parquet"))

	rc, err := conn.Download(context.Background(), objectName)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	// PAR1 magic bytes bracket every Parquet file.
	require.Greater(t, len(data), 8)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))
}

func TestParquetExporter_EmptySetIsSkipped(t *testing.T) {
	conn, err := local.NewLocalAdapter(t.TempDir(), "export-test")
	require.NoError(t, err)
	defer conn.Close()

	exporter, err := export.NewParquetExporter(nil, conn)
	require.NoError(t, err)

	objectName, err := exporter.Export(context.Background(), record.NewRecordSet())
	assert.NoError(t, err)
	assert.Empty(t, objectName)
}

func TestNewParquetExporter_DefaultsAndValidation(t *testing.T) {
	conn, err := local.NewLocalAdapter(t.TempDir(), "export-test")
	require.NoError(t, err)
	defer conn.Close()

	_, err = export.NewParquetExporter(nil, nil)
	assert.Error(t, err)

	// An unsupported codec surfaces at export time.
	bad, err := export.NewParquetExporter(map[string]interface{}{"compression_type": "LZO"}, conn)
	require.NoError(t, err)
	_, err = bad.Export(context.Background(), newPostsSet(t, "x"))
	assert.Error(t, err)
}
