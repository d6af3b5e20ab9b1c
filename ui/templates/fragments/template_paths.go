// Package fragments provides template path constants for organized template management
package fragments

import "strings"

// Template path constants, relative to ui/templates
const (
	// Layout templates
	Head   = "layout/head.html"
	Header = "layout/header.html"
	Footer = "layout/footer.html"

	// Page templates
	LandingPage   = "pages/index.html"
	DashboardPage = "pages/dashboard.html"

	// Dashboard templates
	DashboardBody = "dashboard/body.html"
	UploadWidget  = "dashboard/upload_widget.html"
	Results       = "dashboard/results.html"

	// Status templates
	ServiceStatus = "status/service_status.html"
)

// GetAllTemplatePaths returns all template paths for registration
func GetAllTemplatePaths() []string {
	return []string{
		// Layout
		Head,
		Header,
		Footer,

		// Pages
		LandingPage,
		DashboardPage,

		// Dashboard
		DashboardBody,
		UploadWidget,
		Results,

		// Status
		ServiceStatus,
	}
}

// GetTemplateCategory returns the category for a given template path
func GetTemplateCategory(templatePath string) string {
	switch {
	case strings.HasPrefix(templatePath, "layout/"):
		return "layout"
	case strings.HasPrefix(templatePath, "pages/"):
		return "pages"
	case strings.HasPrefix(templatePath, "dashboard/"):
		return "dashboard"
	case strings.HasPrefix(templatePath, "status/"):
		return "status"
	default:
		return "unknown"
	}
}

// IsFragment reports whether a template renders a partial page
func IsFragment(templatePath string) bool {
	switch GetTemplateCategory(templatePath) {
	case "dashboard", "status":
		return true
	}
	return false
}
