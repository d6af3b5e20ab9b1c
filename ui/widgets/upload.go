package widgets

import (
	"fmt"
	"os"
	"strings"

	"dataops/internal/config"
)

// SelectedFile is a file the user picked, staged on local disk until it is
// analyzed, replaced or cancelled
type SelectedFile struct {
	Name        string
	Size        int64
	ContentType string
	Path        string
}

// Remove deletes the staged copy. A nil file or missing path is a no-op.
func (f *SelectedFile) Remove() error {
	if f == nil || f.Path == "" {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// UploadIntent is what Analyze hands to the page container
type UploadIntent struct {
	File   SelectedFile
	UseLLM bool
}

// UploadWidget holds the state of the upload panel for one session
type UploadWidget struct {
	selected   *SelectedFile
	useLLM     bool
	isDragging bool
}

// NewUploadWidget returns a widget with no file selected and AI insights on
func NewUploadWidget() *UploadWidget {
	return &UploadWidget{useLLM: true}
}

// Selected returns the current selection, or nil
func (w *UploadWidget) Selected() *SelectedFile {
	return w.selected
}

// UseLLM reports whether AI insights will be requested
func (w *UploadWidget) UseLLM() bool {
	return w.useLLM
}

// IsDragging reports whether a drag is hovering over the drop zone
func (w *UploadWidget) IsDragging() bool {
	return w.isDragging
}

// DragEnter highlights the drop zone
func (w *UploadWidget) DragEnter() {
	w.isDragging = true
}

// DragOver keeps the drop zone highlighted
func (w *UploadWidget) DragOver() {
	w.isDragging = true
}

// DragLeave clears the highlight
func (w *UploadWidget) DragLeave() {
	w.isDragging = false
}

// Drop ends the drag and selects the first dropped file. The previous
// selection, if replaced, is returned so its staged copy can be removed.
func (w *UploadWidget) Drop(files []SelectedFile) *SelectedFile {
	w.isDragging = false
	return w.Select(files)
}

// Select takes the first file; extra files are ignored. An empty list keeps
// the current selection and returns nil.
func (w *UploadWidget) Select(files []SelectedFile) *SelectedFile {
	if len(files) == 0 {
		return nil
	}
	previous := w.selected
	first := files[0]
	w.selected = &first
	return previous
}

// ToggleLLM flips the AI insights switch
func (w *UploadWidget) ToggleLLM() {
	w.useLLM = !w.useLLM
}

// SetLLM sets the AI insights switch
func (w *UploadWidget) SetLLM(on bool) {
	w.useLLM = on
}

// CanAnalyze reports whether the Analyze button is enabled
func (w *UploadWidget) CanAnalyze(loading bool) bool {
	return w.selected != nil && !loading
}

// Analyze returns the intent to upload when the button is enabled
func (w *UploadWidget) Analyze(loading bool) (UploadIntent, bool) {
	if !w.CanAnalyze(loading) {
		return UploadIntent{}, false
	}
	return UploadIntent{File: *w.selected, UseLLM: w.useLLM}, true
}

// Cancel clears the selection unless an upload is in flight. The removed
// file is returned so its staged copy can be deleted.
func (w *UploadWidget) Cancel(loading bool) *SelectedFile {
	if loading || w.selected == nil {
		return nil
	}
	removed := w.selected
	w.selected = nil
	return removed
}

// Clear drops the selection regardless of loading state
func (w *UploadWidget) Clear() *SelectedFile {
	removed := w.selected
	w.selected = nil
	return removed
}

// UploadView is the template model for the upload panel
type UploadView struct {
	Dragging      bool
	HasFile       bool
	FileName      string
	FileSize      string
	UseLLM        bool
	Loading       bool
	CanAnalyze    bool
	CanCancel     bool
	AnalyzeLabel  string
	Error         string
	Accept        string
	SizeGuidance  string
	FormatsHint   string
	LLMToggleHint string
}

// View builds the upload panel. errMsg is the container's error, shown
// inline when non-empty.
func (w *UploadWidget) View(loading bool, errMsg string, maxSizeMB int) UploadView {
	v := UploadView{
		Dragging:      w.isDragging,
		UseLLM:        w.useLLM,
		Loading:       loading,
		CanAnalyze:    w.CanAnalyze(loading),
		CanCancel:     w.selected != nil && !loading,
		AnalyzeLabel:  "Analyze Data",
		Error:         errMsg,
		Accept:        strings.Join(config.AcceptedExtensions, ","),
		FormatsHint:   "Supports CSV, Excel, JSON, Parquet",
		LLMToggleHint: "Generate AI insights (slower, uses the analysis model)",
	}
	if maxSizeMB > 0 {
		v.SizeGuidance = fmt.Sprintf("Max file size: %d MB", maxSizeMB)
	}
	if w.selected != nil {
		v.HasFile = true
		v.FileName = w.selected.Name
		v.FileSize = FormatFileSize(w.selected.Size)
	}
	if loading {
		v.AnalyzeLabel = "Analyzing..."
	}
	return v
}

// FormatFileSize renders a byte count for display: bytes below 1 KiB,
// then KB and MB with one decimal
func FormatFileSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
}
