package ui

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"dataops/adapters/api"
	"dataops/internal/logging"
	"dataops/internal/session"
	"dataops/internal/testkit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t      *testing.T
	fake   *testkit.FakeAPI
	server *Server
	base   string
	client *http.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	fake := testkit.NewFakeAPI()
	apiServer := httptest.NewServer(fake)
	t.Cleanup(apiServer.Close)

	staging, err := session.NewStaging(t.TempDir())
	require.NoError(t, err)
	store := session.NewStore(session.Config{TTL: time.Hour}, staging, logging.Discard())

	client := api.NewClient(api.Config{BaseURL: apiServer.URL, Timeout: 5 * time.Second}, logging.Discard())
	server, err := NewServer(client, store, Options{
		AppName:      "DataOps Copilot",
		APIBaseURL:   apiServer.URL,
		MaxUploadMB:  100,
		PollInterval: 100 * time.Millisecond,
		GinMode:      gin.TestMode,
	}, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(server.Close)

	web := httptest.NewServer(server.Handler())
	t.Cleanup(web.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &harness{
		t:      t,
		fake:   fake,
		server: server,
		base:   web.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (h *harness) do(req *http.Request, htmx bool) (*http.Response, string) {
	h.t.Helper()
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp, string(body)
}

func (h *harness) get(path string, htmx bool) (*http.Response, string) {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.base+path, nil)
	require.NoError(h.t, err)
	return h.do(req, htmx)
}

func (h *harness) postForm(path string, form url.Values, htmx bool) (*http.Response, string) {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.base+path, strings.NewReader(form.Encode()))
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req, htmx)
}

func (h *harness) postFiles(names ...string) (*http.Response, string) {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range names {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(h.t, err)
		_, err = part.Write([]byte("order_id,customer,amount\n1,ana,10.5\n2,bo,20\n"))
		require.NoError(h.t, err)
	}
	require.NoError(h.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, h.base+"/dashboard/files", &buf)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return h.do(req, true)
}

// waitIdle polls the dashboard fragment until it stops polling itself
func (h *harness) waitIdle() string {
	h.t.Helper()
	var body string
	require.Eventually(h.t, func() bool {
		_, body = h.get("/dashboard/view", true)
		return !strings.Contains(body, "hx-trigger=\"every")
	}, 5*time.Second, 20*time.Millisecond)
	return body
}

func TestServer_Pages(t *testing.T) {
	h := newHarness(t)

	resp, body := h.get("/", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<h1>DataOps Copilot</h1>")
	assert.Contains(t, body, `hx-get="/status"`)

	resp, body = h.get("/dashboard", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `id="dashboard"`)
	assert.Contains(t, body, `accept=".csv,.xlsx,.xls,.json,.parquet"`)
	assert.Contains(t, body, "Max file size: 100 MB")
	assert.Contains(t, body, "</html>")

	resp, _ = h.get("/static/css/app.css", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_UploadAndProfileEndToEnd(t *testing.T) {
	h := newHarness(t)

	_, body := h.postFiles("orders.csv", "ignored.csv")
	assert.Contains(t, body, "orders.csv")
	assert.NotContains(t, body, "ignored.csv")
	assert.NotContains(t, body, "analyze\" disabled")

	_, body = h.postForm("/dashboard/analyze", url.Values{"description": {"Q1 orders"}}, true)
	assert.Contains(t, body, `id="dashboard"`)

	body = h.waitIdle()
	assert.Equal(t, 3, strings.Count(body, `class="stat-card"`))
	assert.Equal(t, 1, strings.Count(body, `data-tone="red"`))
	assert.Equal(t, 4, strings.Count(body, `class="column-row"`))
	assert.Contains(t, body, `data-panel="insights"`)
	assert.Contains(t, body, "Generated by claude-x")
	assert.Contains(t, body, "Analysis complete!")

	uploads := h.fake.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "orders.csv", uploads[0].FileName)
	assert.Equal(t, "true", uploads[0].UseLLM)
	assert.Equal(t, "Q1 orders", uploads[0].Description)

	resp, raw := h.get("/dashboard/result.json", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "orders_profile.json")
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "orders.csv", doc["file_name"])

	resp, _ = h.get("/dashboard/result.xlsx", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))

	_, body = h.postForm("/dashboard/reset", nil, true)
	assert.Contains(t, body, `data-widget="upload"`)
	assert.NotContains(t, body, `data-widget="results"`)
	assert.NotContains(t, body, `role="alert"`)
	assert.NotContains(t, body, "orders.csv")

	resp, _ = h.get("/dashboard/result.json", false)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_UploadWithoutInsights(t *testing.T) {
	h := newHarness(t)

	h.postFiles("orders.csv")
	_, body := h.postForm("/dashboard/llm", url.Values{"use_llm": {"false"}}, true)
	assert.NotContains(t, body, "value=\"true\" checked")

	h.postForm("/dashboard/analyze", nil, true)
	body = h.waitIdle()

	assert.NotContains(t, body, `data-panel="insights"`)
	assert.Equal(t, "false", h.fake.Uploads()[0].UseLLM)
}

func TestServer_UploadFailureShowsMessage(t *testing.T) {
	h := newHarness(t)
	h.fake.UploadStatus = http.StatusBadRequest
	h.fake.UploadBody = `{"detail": "File type .txt not supported"}`

	h.postFiles("notes.txt")
	h.postForm("/dashboard/analyze", nil, true)
	body := h.waitIdle()

	assert.Contains(t, body, `role="alert"`)
	assert.Contains(t, body, "File type .txt not supported")
	assert.Contains(t, body, "notes.txt", "selection is kept for a retry")
	assert.NotContains(t, body, `data-widget="results"`)
}

func TestServer_AnalyzeWithoutFileIsIgnored(t *testing.T) {
	h := newHarness(t)

	_, body := h.postForm("/dashboard/analyze", nil, true)
	assert.Contains(t, body, `data-widget="upload"`)
	assert.Empty(t, h.fake.Uploads())
}

func TestServer_SecondAnalyzeWhileLoadingIsRejected(t *testing.T) {
	h := newHarness(t)
	h.fake.Delay = 300 * time.Millisecond

	h.postFiles("orders.csv")
	h.postForm("/dashboard/analyze", nil, true)
	h.postForm("/dashboard/analyze", nil, true)
	h.waitIdle()

	assert.Len(t, h.fake.Uploads(), 1)
}

func TestServer_CancelSelection(t *testing.T) {
	h := newHarness(t)

	h.postFiles("orders.csv")
	_, body := h.postForm("/dashboard/cancel", nil, true)
	assert.NotContains(t, body, "orders.csv")
	assert.Contains(t, body, "analyze\" disabled")
}

func TestServer_Drag(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.postForm("/dashboard/drag", url.Values{"state": {"enter"}}, true)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, body := h.get("/dashboard/view", true)
	assert.Contains(t, body, "drop-zone dragging")

	h.postForm("/dashboard/drag", url.Values{"state": {"leave"}}, true)
	_, body = h.get("/dashboard/view", true)
	assert.NotContains(t, body, "drop-zone dragging")

	resp, _ = h.postForm("/dashboard/drag", url.Values{"state": {"sideways"}}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_PlainFormPostRedirects(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.postForm("/dashboard/llm", url.Values{}, false)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	_, body := h.get("/dashboard", false)
	assert.NotContains(t, body, "value=\"true\" checked", "toggle without a value flips the switch")
}

func TestServer_SessionsAreIsolated(t *testing.T) {
	h := newHarness(t)
	h.postFiles("orders.csv")

	other := *h
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	other.client = &http.Client{Jar: jar}

	_, body := other.get("/dashboard/view", true)
	assert.NotContains(t, body, "orders.csv")
}

func TestServer_DeleteUpload(t *testing.T) {
	h := newHarness(t)

	_, body := h.postForm("/dashboard/uploads/unknown/delete", nil, true)
	assert.Equal(t, "Upload not found", body)

	resp, _ := h.postForm("/dashboard/uploads/unknown/delete", nil, false)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	h.postFiles("orders.csv")
	h.postForm("/dashboard/analyze", nil, true)
	h.waitIdle()

	resp, raw := h.get("/dashboard/result.json", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var doc struct {
		UploadID string `json:"upload_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	_, body = h.postForm("/dashboard/uploads/"+doc.UploadID+"/delete", nil, true)
	assert.Equal(t, "Deleted from server", body)
	assert.Equal(t, []string{doc.UploadID}, h.fake.Deleted())

	resp, _ = h.get("/dashboard/result.json", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "the held result is untouched")
}

func TestServer_Status(t *testing.T) {
	h := newHarness(t)

	resp, raw := h.get("/status", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var status map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &status))
	assert.Equal(t, true, status["healthy"])

	_, body := h.get("/status", true)
	assert.Contains(t, body, "healthy")
	assert.Contains(t, body, "claude-sonnet-4-20250514 (default)")
}
