// Package export dumps fetched RecordSets to Parquet files through a storage
// connection. Schema is derived from the set's table metadata and the value kinds
// actually present, so no per-table export types need to be declared.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/adapter/storage"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/record"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/configbinder"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/exception"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/logger"
)

const moduleName = "export"

// ParquetExporterConfig holds the configuration for ParquetExporter.
type ParquetExporterConfig struct {
	// OutputBaseDir is the base directory within the storage connection for
	// exported files (e.g., "export/posts").
	OutputBaseDir string `yaml:"output_base_dir"`
	// CompressionType is the compression type for Parquet files
	// ("SNAPPY", "GZIP", "NONE").
	CompressionType string `yaml:"compression_type"`
}

// ParquetExporter writes RecordSets as Parquet files to a storage connection.
type ParquetExporter struct {
	config *ParquetExporterConfig
	conn   storage.Connection
}

// NewParquetExporter creates a ParquetExporter from a property bag and a storage
// connection.
func NewParquetExporter(properties map[string]interface{}, conn storage.Connection) (*ParquetExporter, error) {
	var cfg ParquetExporterConfig
	if err := configbinder.BindProperties(properties, &cfg); err != nil {
		return nil, exception.NewMapperError(moduleName, "failed to bind exporter properties", err)
	}
	if cfg.OutputBaseDir == "" {
		cfg.OutputBaseDir = "export"
	}
	if cfg.CompressionType == "" {
		cfg.CompressionType = "SNAPPY"
	}
	if conn == nil {
		return nil, exception.NewMapperError(moduleName, "exporter requires a storage connection", nil)
	}
	return &ParquetExporter{config: &cfg, conn: conn}, nil
}

// Export writes the set to one Parquet file and uploads it under
// <output_base_dir>/<table>/. It returns the uploaded object name. An empty set is
// skipped and returns an empty name with no error.
func (e *ParquetExporter) Export(ctx context.Context, set *record.RecordSet) (string, error) {
	if set == nil || set.Len() == 0 {
		logger.Infof("parquet export: record set is empty, skipping file generation")
		return "", nil
	}

	table := set.Get(0).Row().Table()
	codec, err := compressionCodec(e.config.CompressionType)
	if err != nil {
		return "", exception.NewMapperErrorf(moduleName, "invalid compression type %q: %w", e.config.CompressionType, err)
	}

	schema, err := buildSchema(set)
	if err != nil {
		return "", err
	}

	buf := new(bytes.Buffer)
	pw, err := writer.NewJSONWriter(schema, writerfile.NewWriterFile(buf), 4)
	if err != nil {
		return "", exception.NewMapperErrorf(moduleName, "failed to create parquet writer for table %q: %w", table.Name, err)
	}
	pw.RowGroupSize = int64(set.Len())
	pw.CompressionType = codec

	for _, rec := range set.Records() {
		doc, err := rowDocument(rec)
		if err != nil {
			return "", err
		}
		if err := pw.Write(doc); err != nil {
			return "", exception.NewMapperErrorf(moduleName, "failed to write record to parquet for table %q: %w", table.Name, err)
		}
	}
	if err := writeStop(pw, table.Name); err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("data_%s_%s.parquet", time.Now().Format("20060102150405"), strings.Split(uuid.NewString(), "-")[0])
	objectName := path.Join(e.config.OutputBaseDir, table.Name, fileName)
	if err := e.conn.Upload(ctx, objectName, buf, "application/octet-stream"); err != nil {
		return "", exception.NewMapperErrorf(moduleName, "failed to upload %q: %w", objectName, err)
	}
	logger.Infof("parquet export: wrote %d record(s) of table %q to %q", set.Len(), table.Name, objectName)
	return objectName, nil
}

// writeStop finalizes the Parquet file, converting the library's panics to errors.
func writeStop(pw *writer.JSONWriter, tableName string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = exception.NewMapperErrorf(moduleName, "parquet writer panicked while finalizing table %q: %v", tableName, r)
		}
	}()
	if stopErr := pw.WriteStop(); stopErr != nil {
		return exception.NewMapperErrorf(moduleName, "failed to finalize parquet file for table %q: %w", tableName, stopErr)
	}
	return nil
}

// buildSchema derives the Parquet JSON schema from the table's declared columns,
// inferring each column's physical type from the first initialized value in the set.
// Columns with no value anywhere in the set are exported as optional strings.
func buildSchema(set *record.RecordSet) (string, error) {
	table := set.Get(0).Row().Table()
	fields := make([]map[string]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		var sample interface{}
		for _, rec := range set.Records() {
			if v, ok := rec.Get(col); ok && v != nil {
				sample = v
				break
			}
		}
		fields = append(fields, map[string]string{"Tag": fmt.Sprintf("name=%s, %s, repetitiontype=OPTIONAL", col, parquetType(sample))})
	}
	schema := map[string]interface{}{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": fields,
	}
	out, err := json.Marshal(schema)
	if err != nil {
		return "", exception.NewMapperError(moduleName, "failed to marshal parquet schema", err)
	}
	return string(out), nil
}

// parquetType maps a sampled Go value to a Parquet field type tag.
func parquetType(v interface{}) string {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "type=INT64"
	case float32, float64:
		return "type=DOUBLE"
	case bool:
		return "type=BOOLEAN"
	default:
		return "type=BYTE_ARRAY, convertedtype=UTF8"
	}
}

// rowDocument renders one record as the JSON document the parquet JSON writer
// consumes. Uninitialized columns are omitted, which the OPTIONAL repetition type
// turns into nulls.
func rowDocument(rec *record.Record) (string, error) {
	table := rec.Row().Table()
	doc := make(map[string]interface{}, len(table.Columns))
	for _, col := range table.Columns {
		v, ok := rec.Get(col)
		if !ok || v == nil {
			continue
		}
		switch tv := v.(type) {
		case time.Time:
			doc[col] = tv.Format(time.RFC3339)
		case []byte:
			doc[col] = string(tv)
		default:
			doc[col] = tv
		}
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return "", exception.NewMapperErrorf(moduleName, "failed to marshal record of table %q: %w", table.Name, err)
	}
	return string(out), nil
}

// compressionCodec maps the configured compression name to a Parquet codec.
func compressionCodec(name string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(name) {
	case "SNAPPY":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE", "UNCOMPRESSED":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return parquet.CompressionCodec_UNCOMPRESSED, fmt.Errorf("unsupported compression type %q", name)
	}
}
