package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dataops/internal/errors"
	"dataops/internal/logging"
	"dataops/models"
	"dataops/ports"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

const (
	apiPrefix = "/api/v1"

	// DefaultTimeout bounds every request. Profiling with AI insights is
	// slow server-side, so it is generous.
	DefaultTimeout = 5 * time.Minute

	maxResponseBytes = 32 << 20
	sniffBytes       = 3072
)

// Config holds client settings
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client // optional; Timeout is ignored when set
}

// Client talks to the remote analysis API
type Client struct {
	baseURL string
	http    *http.Client
	log     *logrus.Entry
}

var _ ports.AnalysisAPI = (*Client)(nil)

// NewClient creates a new analysis API client
func NewClient(cfg Config, logger logrus.FieldLogger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		log:     logging.Component(logger, "api-client"),
	}
}

// BaseURL returns the configured endpoint
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UploadAndProfile posts the file as multipart/form-data and returns the
// validated profiling result
func (c *Client) UploadAndProfile(ctx context.Context, file ports.Upload, useLLM bool, description string) (*models.ProfilingResult, error) {
	if file.Body == nil || file.Name == "" {
		return nil, &RequestError{Op: "upload", Message: "No file to upload", Cause: errors.NoFileSelected()}
	}

	body := bufio.NewReaderSize(file.Body, sniffBytes)
	contentType := file.ContentType
	if contentType == "" {
		head, _ := body.Peek(sniffBytes)
		contentType = mimetype.Detect(head).String()
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadForm(form, file.Name, contentType, body, useLLM, description))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/data/upload"), pr)
	if err != nil {
		pr.Close()
		return nil, &RequestError{Op: "upload", Message: err.Error(), Cause: err}
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	entry := c.log.WithFields(logrus.Fields{"file": file.Name, "use_llm": useLLM, "content_type": contentType})
	entry.Info("uploading file for profiling")
	start := time.Now()

	raw, err := c.do(req, "upload")
	pr.Close()
	if err != nil {
		entry.WithError(err).Warn("upload failed")
		return nil, err
	}

	result, err := decodeResult(raw)
	if err != nil {
		entry.WithError(err).Warn("profiling result rejected")
		return nil, err
	}

	entry.WithFields(logrus.Fields{
		"rows":     result.BasicStats.RowCount,
		"columns":  len(result.Columns),
		"issues":   len(result.QualityIssues),
		"insights": result.HasInsights(),
		"elapsed":  time.Since(start).String(),
	}).Info("profiling result received")
	return result, nil
}

func writeUploadForm(form *multipart.Writer, name, contentType string, body io.Reader, useLLM bool, description string) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(name)))
	header.Set("Content-Type", contentType)

	part, err := form.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, body); err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if err := form.WriteField("use_llm", strconv.FormatBool(useLLM)); err != nil {
		return err
	}
	if description != "" {
		if err := form.WriteField("description", description); err != nil {
			return err
		}
	}
	return form.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// decodeResult parses and validates a 2xx upload body
func decodeResult(raw []byte) (*models.ProfilingResult, error) {
	if msg := errorResponseMessage(raw); msg != "" {
		return nil, &RequestError{
			Op:      "upload",
			Message: msg,
			Cause:   errors.WithCode(errors.CodeContractViolation, fmt.Errorf("success=false body on 2xx response")),
		}
	}

	var result models.ProfilingResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &RequestError{
			Op:      "upload",
			Message: "The analysis service returned an unreadable response",
			Cause:   errors.WithCode(errors.CodeContractViolation, err),
		}
	}
	if err := result.Validate(); err != nil {
		return nil, &RequestError{
			Op:      "upload",
			Message: "The analysis service returned an incomplete profiling result",
			Cause:   errors.WithCode(errors.CodeContractViolation, err),
		}
	}
	return &result, nil
}

// HealthCheck probes the API liveness endpoint
func (c *Client) HealthCheck(ctx context.Context) (map[string]any, error) {
	return c.getJSON(ctx, http.MethodGet, "/health", "health")
}

// DeleteUpload removes a previously uploaded file server-side
func (c *Client) DeleteUpload(ctx context.Context, uploadID string) (map[string]any, error) {
	if strings.TrimSpace(uploadID) == "" {
		return nil, &RequestError{Op: "delete", Message: "upload id is required", Cause: errors.InvalidInput("empty upload id")}
	}
	return c.getJSON(ctx, http.MethodDelete, "/data/"+url.PathEscape(uploadID), "delete")
}

// ListModels returns the informational model listing
func (c *Client) ListModels(ctx context.Context) (map[string]any, error) {
	return c.getJSON(ctx, http.MethodGet, "/models", "models")
}

// GetProfile fetches a stored profile by upload id
func (c *Client) GetProfile(ctx context.Context, uploadID string) (map[string]any, error) {
	if strings.TrimSpace(uploadID) == "" {
		return nil, &RequestError{Op: "profile", Message: "upload id is required", Cause: errors.InvalidInput("empty upload id")}
	}
	return c.getJSON(ctx, http.MethodGet, "/data/profile/"+url.PathEscape(uploadID), "profile")
}

func (c *Client) getJSON(ctx context.Context, method, path, op string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), nil)
	if err != nil {
		return nil, &RequestError{Op: op, Message: err.Error(), Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	raw, err := c.do(req, op)
	if err != nil {
		c.log.WithError(err).WithField("op", op).Warn("request failed")
		return nil, err
	}

	out := map[string]any{}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &RequestError{Op: op, Message: "The analysis service returned an unreadable response", Cause: err}
	}
	return out, nil
}

// do sends the request and returns the body of a 2xx response
func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Op: op, Message: err.Error(), Cause: errors.ExternalServiceError("analysis API", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &RequestError{Op: op, StatusCode: resp.StatusCode, Message: err.Error(), Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errorMessage(resp.StatusCode, raw)
		return nil, &RequestError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    msg,
			Cause:      errors.ExternalServiceError("analysis API", fmt.Errorf("http %d", resp.StatusCode)),
		}
	}
	return raw, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + apiPrefix + path
}
