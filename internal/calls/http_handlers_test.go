package calls

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) (*gin.Engine, *fakeClock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tr, _, clock := newTestTracker()
	r := gin.New()
	Handlers{Tracker: tr}.Register(r)
	return r, clock
}

func doJSON(r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestHandlers_FullLifecycle(t *testing.T) {
	r, clock := newTestRouter(t)

	w, out := doJSON(r, http.MethodPost, "/call/start", map[string]any{"userId": "u1", "intent": "interview"})
	if w.Code != http.StatusOK || out["success"] != true {
		t.Fatalf("start: %d %v", w.Code, out)
	}
	id, _ := out["conversationId"].(string)
	if id == "" {
		t.Fatalf("expected conversationId, got %v", out)
	}

	clock.Advance(90 * time.Second)
	w, out = doJSON(r, http.MethodPost, "/call/end", map[string]any{"conversationId": id})
	if w.Code != http.StatusOK || out["durationSeconds"] != float64(90) {
		t.Fatalf("end: %d %v", w.Code, out)
	}

	steps := []struct {
		path string
		body map[string]any
	}{
		{"/call/finalize", map[string]any{"conversationId": id, "recordingMeta": map[string]any{"codec": "opus"}}},
		{"/call/upload-audio", map[string]any{"conversationId": id, "audioUrl": "https://cdn/a.mp3"}},
		{"/call/transcript", map[string]any{"conversationId": id, "transcriptText": "hello"}},
		{"/call/analyze", map[string]any{"conversationId": id, "summary": "summary text", "readiness": map[string]any{"score": 0.8}}},
	}
	for _, st := range steps {
		w, out = doJSON(r, http.MethodPost, st.path, st.body)
		if w.Code != http.StatusOK || out["success"] != true {
			t.Fatalf("%s: %d %v", st.path, w.Code, out)
		}
	}

	w, out = doJSON(r, http.MethodGet, "/history/u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history: %d", w.Code)
	}
	hist, _ := out["history"].([]any)
	if len(hist) != 1 {
		t.Fatalf("expected one history entry, got %v", out)
	}
	entry := hist[0].(map[string]any)
	if entry["summary"] != "summary text" || entry["intent"] != "interview" || entry["recordingUrl"] != "https://cdn/a.mp3" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if readiness, _ := entry["readiness"].(map[string]any); readiness["score"] != 0.8 {
		t.Fatalf("unexpected readiness: %v", entry["readiness"])
	}

	w, out = doJSON(r, http.MethodGet, "/call/"+id, nil)
	session, _ := out["session"].(map[string]any)
	if w.Code != http.StatusOK || session["status"] != "completed" {
		t.Fatalf("get: %d %v", w.Code, out)
	}
}

func TestHandlers_ErrorMapping(t *testing.T) {
	r, _ := newTestRouter(t)

	w, out := doJSON(r, http.MethodPost, "/call/start", map[string]any{})
	if w.Code != http.StatusBadRequest || out["kind"] != "validation" || out["error"] == "" {
		t.Fatalf("start without userId: %d %v", w.Code, out)
	}

	w, out = doJSON(r, http.MethodPost, "/call/end", nil)
	if w.Code != http.StatusBadRequest || out["kind"] != "validation" {
		t.Fatalf("end with empty body: %d %v", w.Code, out)
	}

	w, out = doJSON(r, http.MethodPost, "/call/end", map[string]any{"conversationId": "nonexistent"})
	if w.Code != http.StatusNotFound || out["kind"] != "not_found" {
		t.Fatalf("end unknown: %d %v", w.Code, out)
	}

	_, out = doJSON(r, http.MethodPost, "/call/start", map[string]any{"userId": "u1"})
	id := out["conversationId"].(string)
	w, out = doJSON(r, http.MethodPost, "/call/finalize", map[string]any{"conversationId": id})
	if w.Code != http.StatusConflict || out["kind"] != "state" {
		t.Fatalf("finalize before end: %d %v", w.Code, out)
	}
}

func TestHandlers_RejectsMalformedJSON(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/call/start", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandlers_HistoryEmpty(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/history/nobody", nil))
	if w.Code != http.StatusOK || w.Body.String() != `{"history":[]}` {
		t.Fatalf("expected empty history, got %d %s", w.Code, w.Body.String())
	}
}

func TestHandlers_SweepDeletesExpired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tr, repo, clock := newTestTracker(WithRetention(DeleteExpired{Window: time.Hour}))
	mustStart(t, tr, "u1")
	clock.Advance(2 * time.Hour)

	r := gin.New()
	r.POST("/admin/retention/sweep", Handlers{Tracker: tr}.Sweep)
	w, out := doJSON(r, http.MethodPost, "/admin/retention/sweep", nil)
	if w.Code != http.StatusOK || out["swept"] != float64(1) || out["policy"] != RetentionDelete {
		t.Fatalf("sweep: %d %v", w.Code, out)
	}
	if repo.Len() != 0 {
		t.Fatalf("expected repo emptied, got %d", repo.Len())
	}
}
