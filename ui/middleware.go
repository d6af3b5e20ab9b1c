package ui

import (
	"io/fs"
	"net/http"

	"dataops/ui/middleware"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// setupMiddleware configures Gin middleware and static assets
func (s *Server) setupMiddleware(logger logrus.FieldLogger) {
	s.router.Use(middleware.Logger(logger))
	s.router.Use(gin.Recovery())

	staticFS, err := fs.Sub(s.embeddedFiles, "static")
	if err != nil {
		s.log.WithError(err).Error("static assets unavailable")
	} else {
		s.router.StaticFS("/static", http.FS(staticFS))
	}

	// after static so assets do not mint sessions
	s.router.Use(middleware.EnsureSession(s.sessions, s.opts.SessionTTL))
}
