package ui

import (
	stderrors "errors"
	"fmt"
	"html"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"dataops/adapters/api"
	"dataops/adapters/excel"
	"dataops/internal/errors"
	"dataops/internal/session"
	"dataops/models"
	"dataops/ports"
	"dataops/ui/middleware"
	"dataops/ui/templates/fragments"
	"dataops/ui/widgets"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// handleIndex serves the landing page
func (s *Server) handleIndex(c *gin.Context) {
	s.renderTemplate(c, fragments.LandingPage, s.newPageData("Home"))
}

// handleDashboard serves the full dashboard page
func (s *Server) handleDashboard(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	s.renderTemplate(c, fragments.DashboardPage, s.dashboardData(sess))
}

// handleDashboardView returns the dashboard fragment; the page polls it
// while an upload is running
func (s *Server) handleDashboardView(c *gin.Context) {
	s.writeDashboardFragment(c, middleware.CurrentSession(c))
}

// handleSelectFiles stages the first uploaded file as the selection. A drop
// also ends the drag state.
func (s *Server) handleSelectFiles(c *gin.Context) {
	sess := middleware.CurrentSession(c)

	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		// nothing chosen: the current selection stays
		sess.With(func(d *widgets.Dashboard) {
			if c.PostForm("drop") == "true" {
				d.Upload.DragLeave()
			}
		})
		s.respondDashboard(c, sess)
		return
	}

	header := form.File["files"][0]
	src, err := header.Open()
	if err != nil {
		s.respondError(c, errors.Wrap(err, "failed to read the uploaded file"))
		return
	}
	defer src.Close()

	staged, err := s.sessions.Staging().Stage(sess.ID, header.Filename, header.Header.Get("Content-Type"), src)
	if err != nil {
		s.respondError(c, errors.Wrap(err, "failed to stage the uploaded file"))
		return
	}

	var replaced *widgets.SelectedFile
	accepted := false
	sess.With(func(d *widgets.Dashboard) {
		if d.Loading() || d.Result() != nil {
			return
		}
		accepted = true
		if c.PostForm("drop") == "true" {
			replaced = d.Upload.Drop([]widgets.SelectedFile{*staged})
		} else {
			replaced = d.Upload.Select([]widgets.SelectedFile{*staged})
		}
	})

	if !accepted {
		s.removeStaged(staged)
	}
	s.removeStaged(replaced)

	s.log.WithFields(logrus.Fields{
		"session":  sess.ID,
		"file":     staged.Name,
		"size":     staged.Size,
		"accepted": accepted,
		"ignored":  len(form.File["files"]) - 1,
	}).Debug("file selected")
	s.respondDashboard(c, sess)
}

// handleDrag records drag enter/over/leave on the drop zone
func (s *Server) handleDrag(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	state := c.PostForm("state")

	valid := true
	sess.With(func(d *widgets.Dashboard) {
		switch state {
		case "enter":
			d.Upload.DragEnter()
		case "over":
			d.Upload.DragOver()
		case "leave":
			d.Upload.DragLeave()
		default:
			valid = false
		}
	})
	if !valid {
		s.respondError(c, errors.InvalidInput(fmt.Sprintf("unknown drag state %q", state)))
		return
	}

	if isHTMX(c) {
		c.Status(http.StatusNoContent)
		return
	}
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

// handleToggleLLM sets the AI insights switch from the use_llm field, or
// flips it when the field is absent
func (s *Server) handleToggleLLM(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	values := c.PostFormArray("use_llm")

	sess.With(func(d *widgets.Dashboard) {
		if d.Loading() {
			return
		}
		if len(values) == 0 {
			d.Upload.ToggleLLM()
			return
		}
		on := false
		for _, v := range values {
			if v == "true" || v == "on" {
				on = true
			}
		}
		d.Upload.SetLLM(on)
	})
	s.respondDashboard(c, sess)
}

// handleCancel removes the selected file unless an upload is running
func (s *Server) handleCancel(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	var removed *widgets.SelectedFile
	sess.With(func(d *widgets.Dashboard) {
		removed = d.Upload.Cancel(d.Loading())
	})
	s.removeStaged(removed)
	s.respondDashboard(c, sess)
}

// handleAnalyze starts the upload in the background. A second analyze while
// one is running is rejected.
func (s *Server) handleAnalyze(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	description := strings.TrimSpace(c.PostForm("description"))

	if !sess.TryStartUpload() {
		s.log.WithField("session", sess.ID).Warn("analyze rejected: upload already in flight")
		s.respondDashboard(c, sess)
		return
	}

	var intent widgets.UploadIntent
	var err error
	sess.With(func(d *widgets.Dashboard) {
		intent, err = d.Begin()
	})
	if err != nil {
		sess.FinishUpload()
		s.log.WithError(err).WithField("session", sess.ID).Debug("analyze ignored")
		s.respondDashboard(c, sess)
		return
	}

	s.uploads.Add(1)
	go s.runUpload(sess, intent, description)
	s.respondDashboard(c, sess)
}

// runUpload sends the staged file and records the outcome. It is the only
// place that completes an analysis.
func (s *Server) runUpload(sess *session.Session, intent widgets.UploadIntent, description string) {
	defer s.uploads.Done()
	defer sess.FinishUpload()

	entry := s.log.WithFields(logrus.Fields{"session": sess.ID, "file": intent.File.Name, "use_llm": intent.UseLLM})

	var result *models.ProfilingResult
	f, err := os.Open(intent.File.Path)
	if err != nil {
		err = fmt.Errorf("the selected file is no longer available, please select it again")
	} else {
		result, err = s.api.UploadAndProfile(s.uploadCtx, ports.Upload{
			Name:        intent.File.Name,
			ContentType: intent.File.ContentType,
			Body:        f,
		}, intent.UseLLM, description)
		f.Close()
	}

	var consumed *widgets.SelectedFile
	sess.With(func(d *widgets.Dashboard) {
		consumed = d.Complete(result, err)
	})
	s.removeStaged(consumed)

	if err != nil {
		entry.WithError(err).Warn("analysis failed")
		return
	}
	entry.WithField("upload_id", result.UploadID).Info("analysis complete")
}

// handleReset clears the result and returns to the upload view
func (s *Server) handleReset(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	var removed *widgets.SelectedFile
	sess.With(func(d *widgets.Dashboard) {
		removed = d.Reset()
	})
	s.removeStaged(removed)
	s.respondDashboard(c, sess)
}

// handleResultJSON downloads the held result as received
func (s *Server) handleResultJSON(c *gin.Context) {
	result := s.currentResult(c)
	if result == nil {
		s.respondError(c, errors.NotFound("profiling result"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(result.FileName, ".json")))
	c.JSON(http.StatusOK, result)
}

// handleResultXLSX downloads the held result as a workbook
func (s *Server) handleResultXLSX(c *gin.Context) {
	result := s.currentResult(c)
	if result == nil {
		s.respondError(c, errors.NotFound("profiling result"))
		return
	}

	c.Header("Content-Type", excel.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(result.FileName, ".xlsx")))
	c.Status(http.StatusOK)
	if err := excel.WriteReport(c.Writer, result); err != nil {
		s.log.WithError(err).Error("failed to write report")
		_ = c.Error(err)
	}
}

// handleDeleteUpload asks the analysis API to drop an upload. The result
// held by the dashboard is untouched.
func (s *Server) handleDeleteUpload(c *gin.Context) {
	id := c.Param("id")
	resp, err := s.api.DeleteUpload(c.Request.Context(), id)
	if err != nil {
		s.log.WithError(err).WithField("upload_id", id).Warn("delete failed")
		if isHTMX(c) {
			c.Header("Content-Type", "text/html; charset=utf-8")
			c.String(http.StatusOK, html.EscapeString(err.Error()))
			return
		}
		s.respondError(c, err)
		return
	}

	if isHTMX(c) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, "Deleted from server")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleStatus reports analysis API health and models
func (s *Server) handleStatus(c *gin.Context) {
	status := s.data.Status(c.Request.Context())
	if isHTMX(c) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, s.render.RenderStatus(status))
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) dashboardData(sess *session.Session) pageData {
	data := s.newPageData("Dashboard")
	sess.With(func(d *widgets.Dashboard) {
		data.Dashboard = d.View(widgets.Options{MarkdownInsights: s.opts.MarkdownInsights}, s.opts.MaxUploadMB)
	})
	return data
}

func (s *Server) currentResult(c *gin.Context) *models.ProfilingResult {
	var result *models.ProfilingResult
	middleware.CurrentSession(c).With(func(d *widgets.Dashboard) {
		result = d.Result()
	})
	return result
}

// respondDashboard answers a dashboard action: htmx gets the fresh fragment,
// a plain form post is redirected back to the page
func (s *Server) respondDashboard(c *gin.Context, sess *session.Session) {
	if isHTMX(c) {
		s.writeDashboardFragment(c, sess)
		return
	}
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (s *Server) writeDashboardFragment(c *gin.Context, sess *session.Session) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, s.render.RenderDashboard(s.dashboardData(sess)))
}

// respondError writes a JSON error with a status derived from the error
func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": errors.GetCode(err)})
}

func statusFor(err error) int {
	var reqErr *api.RequestError
	if stderrors.As(err, &reqErr) {
		if reqErr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	}
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeInvalidInput, errors.CodeNoFileSelected, errors.CodeValidationError:
		return http.StatusBadRequest
	case errors.CodeUploadInFlight:
		return http.StatusConflict
	case errors.CodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) removeStaged(f *widgets.SelectedFile) {
	if err := f.Remove(); err != nil {
		s.log.WithError(err).Warn("failed to remove staged file")
	}
}

// exportName derives a download name from the profiled file name
func exportName(fileName, ext string) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	if base == "" || base == "." {
		base = "profile"
	}
	return base + "_profile" + ext
}
