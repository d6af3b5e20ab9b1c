package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaging_Stage(t *testing.T) {
	staging, err := NewStaging(t.TempDir())
	require.NoError(t, err)

	file, err := staging.Stage("sess-1", "../../reports/Q1 Orders.CSV", "", strings.NewReader("id,amount\n1,2.5\n2,3.5\n"))
	require.NoError(t, err)

	assert.Equal(t, "Q1 Orders.CSV", file.Name)
	assert.Equal(t, int64(len("id,amount\n1,2.5\n2,3.5\n")), file.Size)
	assert.Equal(t, filepath.Join(staging.BasePath(), "sess-1"), filepath.Dir(file.Path))
	assert.Equal(t, ".csv", filepath.Ext(file.Path))
	assert.NotEmpty(t, file.ContentType)

	data, err := os.ReadFile(file.Path)
	require.NoError(t, err)
	assert.Equal(t, "id,amount\n1,2.5\n2,3.5\n", string(data))
}

func TestStaging_KeepsDeclaredContentType(t *testing.T) {
	staging, err := NewStaging(t.TempDir())
	require.NoError(t, err)

	file, err := staging.Stage("sess-1", "data.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", strings.NewReader("PK"))
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", file.ContentType)
}

func TestStaging_RemoveSession(t *testing.T) {
	staging, err := NewStaging(t.TempDir())
	require.NoError(t, err)

	file, err := staging.Stage("sess-2", "a.json", "application/json", strings.NewReader(`{"a":1}`))
	require.NoError(t, err)

	require.NoError(t, staging.RemoveSession("sess-2"))
	_, err = os.Stat(file.Path)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, staging.RemoveSession("sess-2"))
}

func TestStaging_Purge(t *testing.T) {
	staging, err := NewStaging(t.TempDir())
	require.NoError(t, err)

	_, err = staging.Stage("old", "a.csv", "", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = staging.Stage("recent", "b.csv", "", strings.NewReader("y"))
	require.NoError(t, err)

	removed, err := staging.Purge()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entries, err := os.ReadDir(staging.BasePath())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
