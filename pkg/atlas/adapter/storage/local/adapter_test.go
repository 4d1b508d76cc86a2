package local_test

import (
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/adapter/storage/local"
)

func TestLocalAdapter_UploadAndDownload(t *testing.T) {
	conn, err := local.NewLocalAdapter(t.TempDir(), "local-test")
	require.NoError(t, err)
	defer conn.Close()
	ctx := context.Background()

	require.NoError(t, conn.Upload(ctx, "export/posts/data.parquet", strings.NewReader("payload"), "application/octet-stream"))

	rc, err := conn.Download(ctx, "export/posts/data.parquet")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "payload", string(data))

	assert.Equal(t, "local-test", conn.Name())
}

func TestLocalAdapter_ListObjects(t *testing.T) {
	conn, err := local.NewLocalAdapter(t.TempDir(), "local-test")
	require.NoError(t, err)
	defer conn.Close()
	ctx := context.Background()

	require.NoError(t, conn.Upload(ctx, "export/posts/a.parquet", strings.NewReader("a"), ""))
	require.NoError(t, conn.Upload(ctx, "export/posts/b.parquet", strings.NewReader("b"), ""))
	require.NoError(t, conn.Upload(ctx, "export/comments/c.parquet", strings.NewReader("c"), ""))

	var names []string
	err = conn.ListObjects(ctx, "export/posts", func(objectName string) error {
		names = append(names, objectName)
		return nil
	})
	require.NoError(t, err)
	sort.Strings(names)
	assert.Equal(t, []string{"export/posts/a.parquet", "export/posts/b.parquet"}, names)
}

func TestLocalAdapter_DeleteObject(t *testing.T) {
	conn, err := local.NewLocalAdapter(t.TempDir(), "local-test")
	require.NoError(t, err)
	defer conn.Close()
	ctx := context.Background()

	require.NoError(t, conn.Upload(ctx, "a.txt", strings.NewReader("a"), ""))
	require.NoError(t, conn.DeleteObject(ctx, "a.txt"))

	_, err = conn.Download(ctx, "a.txt")
	assert.Error(t, err)
}

func TestLocalAdapter_RejectsPathTraversal(t *testing.T) {
	conn, err := local.NewLocalAdapter(t.TempDir(), "local-test")
	require.NoError(t, err)
	defer conn.Close()
	ctx := context.Background()

	err = conn.Upload(ctx, "../escape.txt", strings.NewReader("x"), "")
	assert.Error(t, err)

	_, err = conn.Download(ctx, "../../etc/passwd")
	assert.Error(t, err)
}
