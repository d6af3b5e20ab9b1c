package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"dataops/internal/logging"
	"dataops/ports"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ModelInfo is one entry of the informational model listing
type ModelInfo struct {
	Name    string
	ID      string
	Default bool
}

// ServiceStatus combines the health probe and model listing of the
// analysis API. Either half may fail without failing the other.
type ServiceStatus struct {
	Healthy      bool           `json:"healthy"`
	HealthStatus string         `json:"health_status,omitempty"`
	Version      string         `json:"version,omitempty"`
	HealthError  string         `json:"health_error,omitempty"`
	Health       map[string]any `json:"health,omitempty"`
	Models       []ModelInfo    `json:"models,omitempty"`
	ModelsError  string         `json:"models_error,omitempty"`
	CheckedAt    time.Time      `json:"checked_at"`
}

type DataService struct {
	api     ports.AnalysisAPI
	timeout time.Duration
	log     *logrus.Entry
}

func NewDataService(api ports.AnalysisAPI, timeout time.Duration, logger logrus.FieldLogger) *DataService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DataService{
		api:     api,
		timeout: timeout,
		log:     logging.Component(logger, "status"),
	}
}

// Status probes health and models concurrently
func (s *DataService) Status(ctx context.Context) *ServiceStatus {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	status := &ServiceStatus{CheckedAt: time.Now().UTC()}
	var health, models map[string]any
	var healthErr, modelsErr error

	// the group never returns an error; each probe records its own
	var g errgroup.Group
	g.Go(func() error {
		health, healthErr = s.api.HealthCheck(ctx)
		return nil
	})
	g.Go(func() error {
		models, modelsErr = s.api.ListModels(ctx)
		return nil
	})
	_ = g.Wait()

	if healthErr != nil {
		s.log.WithError(healthErr).Warn("health check failed")
		status.HealthError = healthErr.Error()
	} else {
		status.Healthy = true
		status.Health = health
		status.HealthStatus = stringField(health, "status")
		status.Version = stringField(health, "version")
	}

	if modelsErr != nil {
		status.ModelsError = modelsErr.Error()
	} else {
		status.Models = parseModels(models)
	}
	return status
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

// parseModels reads {"available_models": {name: id}, "default_model": id}
func parseModels(m map[string]any) []ModelInfo {
	available, _ := m["available_models"].(map[string]any)
	defaultID := stringField(m, "default_model")

	out := make([]ModelInfo, 0, len(available))
	for name, id := range available {
		idStr := fmt.Sprint(id)
		out = append(out, ModelInfo{Name: name, ID: idStr, Default: idStr == defaultID})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
