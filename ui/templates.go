package ui

import (
	"bytes"
	"net/http"
	"strings"

	"dataops/ui/templates/fragments"

	"github.com/gin-gonic/gin"
)

// renderTemplate executes a template with the given data
func (s *Server) renderTemplate(c *gin.Context, templateName string, data any) {
	// render to a buffer so a failure never leaves a half-written page
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		s.log.WithError(err).WithField("template", templateName).Error("template rendering failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Template rendering failed", "details": err.Error()})
		return
	}

	if !fragments.IsFragment(templateName) && !strings.Contains(buf.String(), "</html>") {
		s.log.WithField("template", templateName).Warn("rendered page appears truncated")
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		s.log.WithError(err).Warn("error writing template response")
	}
}

// isHTMX reports whether the request came from htmx and wants a fragment
func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}
