package services

import (
	"context"
	"testing"
	"time"

	"dataops/internal/logging"
	"dataops/models"
	"dataops/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) UploadAndProfile(ctx context.Context, file ports.Upload, useLLM bool, description string) (*models.ProfilingResult, error) {
	args := m.Called(ctx, file, useLLM, description)
	result, _ := args.Get(0).(*models.ProfilingResult)
	return result, args.Error(1)
}

func (m *mockAPI) HealthCheck(ctx context.Context) (map[string]any, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).(map[string]any)
	return out, args.Error(1)
}

func (m *mockAPI) DeleteUpload(ctx context.Context, id string) (map[string]any, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(map[string]any)
	return out, args.Error(1)
}

func (m *mockAPI) ListModels(ctx context.Context) (map[string]any, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).(map[string]any)
	return out, args.Error(1)
}

func (m *mockAPI) GetProfile(ctx context.Context, id string) (map[string]any, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(map[string]any)
	return out, args.Error(1)
}

func TestDataService_Status(t *testing.T) {
	api := new(mockAPI)
	api.On("HealthCheck", mock.Anything).Return(map[string]any{"status": "healthy", "version": "1.0.0"}, nil)
	api.On("ListModels", mock.Anything).Return(map[string]any{
		"available_models": map[string]any{"gpt4": "gpt-4o", "claude": "claude-sonnet-4-20250514"},
		"default_model":    "claude-sonnet-4-20250514",
	}, nil)

	status := NewDataService(api, time.Second, logging.Discard()).Status(context.Background())

	assert.True(t, status.Healthy)
	assert.Equal(t, "healthy", status.HealthStatus)
	assert.Equal(t, "1.0.0", status.Version)
	require.Len(t, status.Models, 2)
	assert.Equal(t, ModelInfo{Name: "claude", ID: "claude-sonnet-4-20250514", Default: true}, status.Models[0])
	assert.Equal(t, ModelInfo{Name: "gpt4", ID: "gpt-4o"}, status.Models[1])
	api.AssertExpectations(t)
}

func TestDataService_StatusPartialFailure(t *testing.T) {
	api := new(mockAPI)
	api.On("HealthCheck", mock.Anything).Return(nil, assert.AnError)
	api.On("ListModels", mock.Anything).Return(map[string]any{}, nil)

	status := NewDataService(api, time.Second, logging.Discard()).Status(context.Background())

	assert.False(t, status.Healthy)
	assert.Equal(t, assert.AnError.Error(), status.HealthError)
	assert.Empty(t, status.ModelsError)
	assert.Empty(t, status.Models)
}
