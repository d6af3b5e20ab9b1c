package widgets

import (
	"dataops/internal/errors"
	"dataops/models"
)

// Dashboard is the page container. It owns the current result, the loading
// flag and the last error, and delegates file selection to its UploadWidget.
// It is not safe for concurrent use; callers serialize access per session.
type Dashboard struct {
	Upload *UploadWidget

	result  *models.ProfilingResult
	loading bool
	err     string
}

// NewDashboard returns a dashboard showing the empty upload view
func NewDashboard() *Dashboard {
	return &Dashboard{Upload: NewUploadWidget()}
}

func (d *Dashboard) Result() *models.ProfilingResult { return d.result }

func (d *Dashboard) Loading() bool { return d.loading }

func (d *Dashboard) Error() string { return d.err }

// Begin starts an analysis of the selected file. The previous error is
// cleared and the dashboard enters the loading state.
func (d *Dashboard) Begin() (UploadIntent, error) {
	if d.loading {
		return UploadIntent{}, errors.UploadInFlight()
	}
	if d.result != nil {
		return UploadIntent{}, errors.InvalidInput("reset the current result before analyzing another file")
	}
	intent, ok := d.Upload.Analyze(d.loading)
	if !ok {
		return UploadIntent{}, errors.NoFileSelected()
	}
	d.err = ""
	d.loading = true
	return intent, nil
}

// Complete records the outcome of the call started by Begin. On success the
// selection is consumed and returned so its staged copy can be removed; on
// failure the selection is kept so the user can retry.
func (d *Dashboard) Complete(result *models.ProfilingResult, err error) *SelectedFile {
	d.loading = false
	if err != nil {
		d.err = err.Error()
		return nil
	}
	if result == nil {
		d.err = "The analysis service returned an empty response"
		return nil
	}
	d.result = result
	d.err = ""
	return d.Upload.Clear()
}

// Reset returns to the initial upload view. Any selection is dropped and
// returned for cleanup. Reset is ignored while a call is in flight.
func (d *Dashboard) Reset() *SelectedFile {
	if d.loading {
		return nil
	}
	d.result = nil
	d.err = ""
	d.Upload.DragLeave()
	return d.Upload.Clear()
}

// DashboardView is the template model for the whole dashboard body
type DashboardView struct {
	Loading bool
	Upload  UploadView
	Results *ResultsView
}

// View renders the results when a result is held, otherwise the upload panel
func (d *Dashboard) View(opts Options, maxSizeMB int) DashboardView {
	v := DashboardView{Loading: d.loading}
	if d.result != nil {
		results := BuildResults(d.result, opts)
		v.Results = &results
		return v
	}
	v.Upload = d.Upload.View(d.loading, d.err, maxSizeMB)
	return v
}
