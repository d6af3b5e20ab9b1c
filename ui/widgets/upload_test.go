package widgets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func files(names ...string) []SelectedFile {
	out := make([]SelectedFile, len(names))
	for i, name := range names {
		out[i] = SelectedFile{Name: name, Size: int64(1000 * (i + 1))}
	}
	return out
}

func TestUploadWidget_Defaults(t *testing.T) {
	w := NewUploadWidget()
	assert.Nil(t, w.Selected())
	assert.True(t, w.UseLLM())
	assert.False(t, w.IsDragging())
	assert.False(t, w.CanAnalyze(false))
}

func TestUploadWidget_SelectKeepsFirstOnly(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		w := NewUploadWidget()
		names := make([]string, n)
		for i := range names {
			names[i] = filepath.Join("batch", string(rune('a'+i))+".csv")
		}
		w.Select(files(names...))
		require.NotNil(t, w.Selected())
		assert.Equal(t, names[0], w.Selected().Name)
	}
}

func TestUploadWidget_SelectEmptyKeepsSelection(t *testing.T) {
	w := NewUploadWidget()
	w.Select(files("a.csv"))

	assert.Nil(t, w.Select(nil))
	assert.Equal(t, "a.csv", w.Selected().Name)
}

func TestUploadWidget_SelectReturnsReplaced(t *testing.T) {
	w := NewUploadWidget()
	assert.Nil(t, w.Select(files("a.csv")))

	previous := w.Select(files("b.csv"))
	require.NotNil(t, previous)
	assert.Equal(t, "a.csv", previous.Name)
	assert.Equal(t, "b.csv", w.Selected().Name)
}

func TestUploadWidget_DragLifecycle(t *testing.T) {
	w := NewUploadWidget()
	w.DragEnter()
	assert.True(t, w.IsDragging())
	w.DragOver()
	assert.True(t, w.IsDragging())
	w.DragLeave()
	assert.False(t, w.IsDragging())

	w.DragEnter()
	w.Drop(files("x.xlsx", "y.csv"))
	assert.False(t, w.IsDragging())
	assert.Equal(t, "x.xlsx", w.Selected().Name)
}

func TestUploadWidget_CanAnalyze(t *testing.T) {
	tests := []struct {
		name     string
		selected bool
		loading  bool
		want     bool
	}{
		{"nothing selected", false, false, false},
		{"nothing selected while loading", false, true, false},
		{"selected", true, false, true},
		{"selected while loading", true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewUploadWidget()
			if tt.selected {
				w.Select(files("a.csv"))
			}
			assert.Equal(t, tt.want, w.CanAnalyze(tt.loading))
			_, ok := w.Analyze(tt.loading)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestUploadWidget_AnalyzeCarriesToggle(t *testing.T) {
	w := NewUploadWidget()
	w.Select(files("a.csv"))
	w.ToggleLLM()

	intent, ok := w.Analyze(false)
	require.True(t, ok)
	assert.Equal(t, "a.csv", intent.File.Name)
	assert.False(t, intent.UseLLM)

	w.SetLLM(true)
	intent, _ = w.Analyze(false)
	assert.True(t, intent.UseLLM)
}

func TestUploadWidget_Cancel(t *testing.T) {
	w := NewUploadWidget()
	assert.Nil(t, w.Cancel(false))

	w.Select(files("a.csv"))
	assert.Nil(t, w.Cancel(true), "cancel is disabled while loading")
	assert.NotNil(t, w.Selected())

	removed := w.Cancel(false)
	require.NotNil(t, removed)
	assert.Equal(t, "a.csv", removed.Name)
	assert.Nil(t, w.Selected())
}

func TestUploadWidget_View(t *testing.T) {
	w := NewUploadWidget()
	v := w.View(false, "", 100)
	assert.False(t, v.HasFile)
	assert.False(t, v.CanAnalyze)
	assert.Equal(t, ".csv,.xlsx,.xls,.json,.parquet", v.Accept)
	assert.Equal(t, "Max file size: 100 MB", v.SizeGuidance)
	assert.Equal(t, "Analyze Data", v.AnalyzeLabel)

	w.Select([]SelectedFile{{Name: "orders.csv", Size: 1536}})
	v = w.View(true, "Network Error", 100)
	assert.True(t, v.HasFile)
	assert.Equal(t, "1.5 KB", v.FileSize)
	assert.False(t, v.CanAnalyze)
	assert.False(t, v.CanCancel)
	assert.Equal(t, "Analyzing...", v.AnalyzeLabel)
	assert.Equal(t, "Network Error", v.Error)
}

func TestSelectedFile_Remove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staged.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o600))

	f := &SelectedFile{Name: "staged.csv", Path: path}
	require.NoError(t, f.Remove())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, f.Remove(), "second remove is a no-op")
	assert.NoError(t, (*SelectedFile)(nil).Remove())
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048575, "1024.0 KB"},
		{1048576, "1.0 MB"},
		{1572864, "1.5 MB"},
		{250 * 1024 * 1024, "250.0 MB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFileSize(tt.bytes), "bytes=%d", tt.bytes)
	}
}
