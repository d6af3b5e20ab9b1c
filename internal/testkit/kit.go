package testkit

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"dataops/models"

	"github.com/google/uuid"
)

// SampleDocument is a complete upload response as the analysis API sends it
const SampleDocument = `{
	"file_name": "orders.csv",
	"timestamp": "2025-11-02T10:15:00.000000",
	"basic_stats": {"row_count": 120, "column_count": 4, "memory_usage_mb": 0.0213,
		"duplicate_rows": 3, "total_nulls": 7, "null_percentage": 1.4583},
	"columns": [
		{"name": "order_id", "dtype": "int64", "null_count": 0, "null_percentage": 0.0,
			"unique_count": 120, "unique_percentage": 100.0,
			"min": 1.0, "max": 120.0, "mean": 60.5, "median": 60.5, "std": 34.785},
		{"name": "customer", "dtype": "object", "null_count": 7, "null_percentage": 5.8333,
			"unique_count": 40, "unique_percentage": 33.3333,
			"avg_length": 8.4, "max_length": 14, "min_length": 3, "sample_values": ["Ana Lima", "Bo Chen", "Cy Ortiz"]},
		{"name": "placed_at", "dtype": "datetime64[ns]", "null_count": 0, "null_percentage": 0.0,
			"unique_count": 118, "unique_percentage": 98.3333,
			"min_date": "2025-01-01 00:00:00", "max_date": "2025-03-31 00:00:00"},
		{"name": "amount", "dtype": "float64", "null_count": 0, "null_percentage": 0.0,
			"unique_count": 97, "unique_percentage": 80.8333,
			"min": 3.5, "max": 1250.0, "mean": 182.4567, "median": 120.0, "std": 201.3}
	],
	"quality_issues": [
		{"severity": "high", "type": "high_null_percentage", "column": "customer",
			"description": "Column 'customer' has 55.0% null values",
			"recommendation": "Consider dropping this column or imputing values"}
	],
	"llm_insights": {
		"insights": "1. **Business Context**: retail order ledger.\n2. **Data Quality Assessment**: 8/10.\n\n   Keep an eye on missing customers.",
		"model_used": "claude-x",
		"tokens_used": 1830
	},
	"upload_id": "6f1c2d9e-0000-4000-8000-000000000001",
	"file_size_mb": 0.0087,
	"success": true
}`

// SampleResult decodes SampleDocument
func SampleResult() *models.ProfilingResult {
	var result models.ProfilingResult
	if err := json.Unmarshal([]byte(SampleDocument), &result); err != nil {
		panic(fmt.Sprintf("testkit: sample document does not decode: %v", err))
	}
	return &result
}

// MinimalResult is a valid result with no issues and no insights
func MinimalResult() *models.ProfilingResult {
	result := SampleResult()
	result.FileName = "empty_issues.json"
	result.QualityIssues = []models.QualityIssue{}
	result.LLMInsights = nil
	return result
}

// CloneResult deep-copies a result through its wire form
func CloneResult(result *models.ProfilingResult) *models.ProfilingResult {
	raw, err := json.Marshal(result)
	if err != nil {
		panic(fmt.Sprintf("testkit: marshal result: %v", err))
	}
	var out models.ProfilingResult
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("testkit: unmarshal result: %v", err))
	}
	return &out
}

// ReceivedUpload records what the fake API saw for one upload
type ReceivedUpload struct {
	FileName    string
	ContentType string
	Size        int
	UseLLM      string
	Description string
	HasDesc     bool
}

// FakeAPI emulates the analysis API. It answers uploads with a copy of
// Result renamed to the uploaded file, drops insights when use_llm is
// "false", and remembers upload ids so deletes can 404.
type FakeAPI struct {
	mu sync.Mutex

	Result       *models.ProfilingResult
	UploadStatus int    // non-zero forces this status on uploads
	UploadBody   string // raw body sent with UploadStatus
	Delay        time.Duration

	uploads []ReceivedUpload
	ids     map[string]bool
	deleted []string
	mux     *http.ServeMux
}

// NewFakeAPI creates a fake serving SampleResult
func NewFakeAPI() *FakeAPI {
	f := &FakeAPI{
		Result: SampleResult(),
		ids:    make(map[string]bool),
		mux:    http.NewServeMux(),
	}
	f.mux.HandleFunc("POST /api/v1/data/upload", f.handleUpload)
	f.mux.HandleFunc("GET /api/v1/health", f.handleHealth)
	f.mux.HandleFunc("GET /api/v1/models", f.handleModels)
	f.mux.HandleFunc("DELETE /api/v1/data/{id}", f.handleDelete)
	f.mux.HandleFunc("GET /api/v1/data/profile/{id}", f.handleProfile)
	return f
}

func (f *FakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mux.ServeHTTP(w, r)
}

// Uploads returns the uploads received so far
func (f *FakeAPI) Uploads() []ReceivedUpload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ReceivedUpload(nil), f.uploads...)
}

// Deleted returns the upload ids deleted so far
func (f *FakeAPI) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func (f *FakeAPI) handleUpload(w http.ResponseWriter, r *http.Request) {
	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []string{"body", "file"}, "msg": "Field required", "type": "missing"}},
		})
		return
	}
	defer file.Close()
	size, _ := io.Copy(io.Discard, file)

	desc, hasDesc := r.MultipartForm.Value["description"]
	received := ReceivedUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        int(size),
		UseLLM:      r.FormValue("use_llm"),
		HasDesc:     hasDesc,
	}
	if hasDesc && len(desc) > 0 {
		received.Description = desc[0]
	}

	f.mu.Lock()
	f.uploads = append(f.uploads, received)
	status, body, template := f.UploadStatus, f.UploadBody, f.Result
	f.mu.Unlock()

	if status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
		return
	}

	result := CloneResult(template)
	result.FileName = header.Filename
	result.UploadID = uuid.NewString()
	sizeMB := float64(size) / 1024 / 1024
	result.FileSizeMB = &sizeMB
	result.Description = received.Description
	if strings.EqualFold(received.UseLLM, "false") {
		result.LLMInsights = nil
	}

	f.mu.Lock()
	f.ids[result.UploadID] = true
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, result)
}

func (f *FakeAPI) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"app":       "DataOps Copilot",
		"version":   "1.0.0",
	})
}

func (f *FakeAPI) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"available_models": map[string]string{
			"claude": "claude-sonnet-4-20250514",
			"gpt4":   "gpt-4o",
			"gemini": "gemini-1.5-pro",
		},
		"default_model": "claude-sonnet-4-20250514",
	})
}

func (f *FakeAPI) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	f.mu.Lock()
	known := f.ids[id]
	if known {
		delete(f.ids, id)
		f.deleted = append(f.deleted, id)
	}
	f.mu.Unlock()

	if !known {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Upload not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": fmt.Sprintf("Upload %s deleted", id)})
}

func (f *FakeAPI) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"upload_id": r.PathValue("id"),
		"status":    "To be implemented - database integration needed",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
