package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/acptdev/condrules/internal/visibility"
)

// SampleForm is a small ACPT meta box with a toggle, a select, a text field
// inside a repeater and the targets driven by them.
const SampleForm = `<!DOCTYPE html>
<html><body>
<form id="post">
  <input type="checkbox" name="show_details" value="1" checked data-conditional-rules-id="box_1">
  <select name="color" data-conditional-rules-id="box_1">
    <option value="red">Red</option>
    <option value="blue" selected>Blue</option>
  </select>
  <div id="details" class="acpt-field">Details</div>
  <div data-id="row_note" class="acpt-row">
    <input type="text" name="note" value="first" data-conditional-rules-id="rep_1" data-conditional-rules-field-index="0">
  </div>
  <div data-id="row_note" class="acpt-row">
    <input type="text" name="note" value="second" data-conditional-rules-id="rep_2" data-conditional-rules-field-index="1">
  </div>
  <textarea name="summary" data-conditional-rules-id="box_1">hello</textarea>
</form>
</body></html>`

// RuleServer is a fake admin-ajax endpoint answering checkIsVisibleAction
// and languagesAction.
type RuleServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []visibility.EvaluateRequest
	actions  []string

	// Decide builds the JSON answer for one evaluation request.
	Decide func(req visibility.EvaluateRequest) any
	// Translations is served for languagesAction.
	Translations map[string]string
	// Status, when non-zero, is returned instead of a decision.
	Status int
}

// NewRuleServer starts a fake endpoint answering every evaluation with
// decide. It is closed when the test ends.
func NewRuleServer(t *testing.T, decide func(req visibility.EvaluateRequest) any) *RuleServer {
	t.Helper()
	rs := &RuleServer{Decide: decide}
	rs.Server = httptest.NewServer(http.HandlerFunc(rs.handle))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *RuleServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	action := r.PostForm.Get("action")
	rs.mu.Lock()
	rs.actions = append(rs.actions, action)
	status := rs.Status
	rs.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("0"))
		return
	}

	switch action {
	case "checkIsVisibleAction":
		var req visibility.EvaluateRequest
		if err := json.Unmarshal([]byte(r.PostForm.Get("data")), &req); err != nil {
			http.Error(w, "bad data", http.StatusBadRequest)
			return
		}
		rs.mu.Lock()
		rs.requests = append(rs.requests, req)
		rs.mu.Unlock()

		var answer any = map[string]any{}
		if rs.Decide != nil {
			answer = rs.Decide(req)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(answer)
	case "languagesAction":
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rs.Translations)
	default:
		// admin-ajax answers unknown actions with a bare "0"
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("0"))
	}
}

// Requests returns the evaluation requests received so far.
func (rs *RuleServer) Requests() []visibility.EvaluateRequest {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]visibility.EvaluateRequest, len(rs.requests))
	copy(out, rs.requests)
	return out
}

// Actions returns the action field of every request received so far.
func (rs *RuleServer) Actions() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]string, len(rs.actions))
	copy(out, rs.actions)
	return out
}

// ValueOf returns the value observed for field in req, or "" when absent.
func ValueOf(req visibility.EvaluateRequest, field, formID string) string {
	for _, obs := range req.Values {
		if obs.FieldID == field && obs.FormID == formID {
			return obs.Value.String()
		}
	}
	return ""
}

// HTTPRequest is a helper for making test HTTP requests.
type HTTPRequest struct {
	Method  string
	Path    string
	Body    string
	Headers map[string]string
}

// Do executes the HTTP request and returns the response recorder.
func (r *HTTPRequest) Do(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.Body != "" {
		body = bytes.NewBufferString(r.Body)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}
