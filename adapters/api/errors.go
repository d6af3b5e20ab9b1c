package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"dataops/models"
)

// RequestError is returned for any failed call to the analysis API: network
// failure, non-2xx status or a response that breaks the contract. Message is
// meant to be shown to the user as is.
type RequestError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Message    string
	Cause      error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

// maxInlineBody caps how much of a non-JSON error body is echoed to the user
const maxInlineBody = 300

// errorMessage extracts the human-readable text from a failed response.
// FastAPI puts it in "detail" (a string, or a list of validation errors);
// the documented ErrorResponse uses "error".
func errorMessage(status int, body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if msg := detailMessage(envelope.Detail); msg != "" {
			return msg
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}

	text := strings.TrimSpace(string(body))
	if text != "" && utf8.ValidString(text) && !strings.HasPrefix(text, "<") {
		if len(text) > maxInlineBody {
			cut := maxInlineBody
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut] + "..."
		}
		return text
	}
	return fmt.Sprintf("Request failed with status code %d (%s)", status, http.StatusText(status))
}

func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil && len(items) > 0 {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if len(item.Loc) > 0 {
				parts = append(parts, fmt.Sprintf("%v: %s", item.Loc[len(item.Loc)-1], item.Msg))
			} else {
				parts = append(parts, item.Msg)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

// errorResponseMessage reads a 2xx body that is actually an ErrorResponse
func errorResponseMessage(body []byte) string {
	var resp models.ErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Success || resp.Error == "" {
		return ""
	}
	if resp.Detail != "" {
		return resp.Error + ": " + resp.Detail
	}
	return resp.Error
}
