package services

import (
	"html/template"
	"strings"

	"dataops/internal/logging"
	"dataops/ui/templates/fragments"

	"github.com/sirupsen/logrus"
)

type RenderService struct {
	templates *template.Template
	log       *logrus.Entry
}

func NewRenderService(templates *template.Template, logger logrus.FieldLogger) *RenderService {
	return &RenderService{
		templates: templates,
		log:       logging.Component(logger, "render"),
	}
}

// RenderDashboard renders the dashboard body fragment
func (s *RenderService) RenderDashboard(data any) string {
	var buf strings.Builder
	if err := s.templates.ExecuteTemplate(&buf, fragments.DashboardBody, data); err != nil {
		s.log.WithError(err).Error("failed to render dashboard fragment")
		return `<div id="dashboard"><div class="error" role="alert">Error rendering the dashboard. Reload the page to try again.</div></div>`
	}
	return buf.String()
}

// RenderStatus renders the analysis service status fragment
func (s *RenderService) RenderStatus(status *ServiceStatus) string {
	var buf strings.Builder
	if err := s.templates.ExecuteTemplate(&buf, fragments.ServiceStatus, status); err != nil {
		s.log.WithError(err).Error("failed to render status fragment")
		return `<div class="service-status down">Error rendering service status</div>`
	}
	return buf.String()
}
