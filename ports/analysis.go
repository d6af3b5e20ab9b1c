package ports

import (
	"context"
	"io"

	"dataops/models"
)

// Upload is a file handed to the analysis API
type Upload struct {
	Name        string
	ContentType string // optional; detected from content when empty
	Body        io.Reader
}

// AnalysisAPI is the remote profiling service. Responses other than the
// profiling result have no fixed shape and are returned as decoded JSON.
type AnalysisAPI interface {
	UploadAndProfile(ctx context.Context, file Upload, useLLM bool, description string) (*models.ProfilingResult, error)
	HealthCheck(ctx context.Context) (map[string]any, error)
	DeleteUpload(ctx context.Context, uploadID string) (map[string]any, error)
	ListModels(ctx context.Context) (map[string]any, error)
	GetProfile(ctx context.Context, uploadID string) (map[string]any, error)
}
