package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"incall-control/internal/audit"
	"incall-control/internal/auth"

	"github.com/gin-gonic/gin"
)

type recordedCommand struct {
	name   string
	callID int
	flag   bool
	msg    *string
	digit  rune
	mode   int
}

type fakeCommands struct {
	recorded []recordedCommand
}

func (f *fakeCommands) record(rc recordedCommand) { f.recorded = append(f.recorded, rc) }

func (f *fakeCommands) AnswerCall(ctx context.Context, callID int) {
	f.record(recordedCommand{name: "answer", callID: callID})
}

func (f *fakeCommands) RejectCall(ctx context.Context, callID int, withMessage bool, message *string) {
	f.record(recordedCommand{name: "reject", callID: callID, flag: withMessage, msg: message})
}

func (f *fakeCommands) DisconnectCall(ctx context.Context, callID int) {
	f.record(recordedCommand{name: "disconnect", callID: callID})
}

func (f *fakeCommands) Hold(ctx context.Context, callID int, wantHold bool) {
	f.record(recordedCommand{name: "hold", callID: callID, flag: wantHold})
}

func (f *fakeCommands) Merge(ctx context.Context)   { f.record(recordedCommand{name: "merge"}) }
func (f *fakeCommands) AddCall(ctx context.Context) { f.record(recordedCommand{name: "add"}) }
func (f *fakeCommands) Swap(ctx context.Context)    { f.record(recordedCommand{name: "swap"}) }

func (f *fakeCommands) Mute(ctx context.Context, on bool) {
	f.record(recordedCommand{name: "mute", flag: on})
}

func (f *fakeCommands) Speaker(ctx context.Context, on bool) {
	f.record(recordedCommand{name: "speaker", flag: on})
}

func (f *fakeCommands) PlayDtmfTone(ctx context.Context, digit rune, timedShortTone bool) {
	f.record(recordedCommand{name: "play_dtmf", digit: digit, flag: timedShortTone})
}

func (f *fakeCommands) StopDtmfTone(ctx context.Context) {
	f.record(recordedCommand{name: "stop_dtmf"})
}

func (f *fakeCommands) SetAudioMode(ctx context.Context, mode int) {
	f.record(recordedCommand{name: "audio_mode", mode: mode})
}

func newTestRouter(h Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/call/:call_id/answer", h.AnswerCall)
	r.POST("/v1/call/:call_id/reject", h.RejectCall)
	r.POST("/v1/call/:call_id/disconnect", h.DisconnectCall)
	r.POST("/v1/call/:call_id/hold", h.Hold)
	r.POST("/v1/calls/merge", h.Merge)
	r.POST("/v1/calls/add", h.AddCall)
	r.POST("/v1/calls/swap", h.Swap)
	r.POST("/v1/audio/mute", h.Mute)
	r.POST("/v1/audio/speaker", h.Speaker)
	r.POST("/v1/audio/mode", h.SetAudioMode)
	r.POST("/v1/dtmf/play", h.PlayDtmfTone)
	r.POST("/v1/dtmf/stop", h.StopDtmfTone)
	r.GET("/v1/audit/events", h.ListAuditEvents)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAnswerCall_AcceptsAndDispatches(t *testing.T) {
	fc := &fakeCommands{}
	r := newTestRouter(Handlers{Commands: fc})

	w := doJSON(t, r, http.MethodPost, "/v1/call/7/answer", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	if len(fc.recorded) != 1 || fc.recorded[0].name != "answer" || fc.recorded[0].callID != 7 {
		t.Fatalf("unexpected dispatch: %+v", fc.recorded)
	}
}

func TestAnswerCall_RejectsNonIntegerID(t *testing.T) {
	fc := &fakeCommands{}
	r := newTestRouter(Handlers{Commands: fc})

	w := doJSON(t, r, http.MethodPost, "/v1/call/abc/answer", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(fc.recorded) != 0 {
		t.Fatalf("malformed requests must not dispatch")
	}
}

func TestRejectCall_MessagePassthrough(t *testing.T) {
	fc := &fakeCommands{}
	r := newTestRouter(Handlers{Commands: fc})

	w := doJSON(t, r, http.MethodPost, "/v1/call/3/reject", `{"reject_with_message":true,"message":"driving"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	rc := fc.recorded[0]
	if !rc.flag || rc.msg == nil || *rc.msg != "driving" {
		t.Fatalf("expected message passthrough, got %+v", rc)
	}

	// Absent message stays nil so the dispatcher picks the compose path.
	doJSON(t, r, http.MethodPost, "/v1/call/3/reject", `{"reject_with_message":true}`)
	rc = fc.recorded[1]
	if !rc.flag || rc.msg != nil {
		t.Fatalf("expected nil message, got %+v", rc)
	}
}

func TestHold_RequiresExplicitFlag(t *testing.T) {
	fc := &fakeCommands{}
	r := newTestRouter(Handlers{Commands: fc})

	if w := doJSON(t, r, http.MethodPost, "/v1/call/5/hold", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing hold, got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/v1/call/5/hold", `{"hold":false}`); w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	if len(fc.recorded) != 1 || fc.recorded[0].name != "hold" || fc.recorded[0].flag {
		t.Fatalf("unexpected dispatch: %+v", fc.recorded)
	}
}

func TestCalllessCommands(t *testing.T) {
	fc := &fakeCommands{}
	r := newTestRouter(Handlers{Commands: fc})

	for _, path := range []string{"/v1/calls/merge", "/v1/calls/add", "/v1/calls/swap", "/v1/dtmf/stop"} {
		if w := doJSON(t, r, http.MethodPost, path, ""); w.Code != http.StatusAccepted {
			t.Errorf("%s: expected 202, got %d", path, w.Code)
		}
	}
	if len(fc.recorded) != 4 {
		t.Fatalf("expected 4 dispatches, got %+v", fc.recorded)
	}
}

func TestAudioCommands_RequireExplicitToggle(t *testing.T) {
	fc := &fakeCommands{}
	r := newTestRouter(Handlers{Commands: fc})

	if w := doJSON(t, r, http.MethodPost, "/v1/audio/mute", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing on, got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/v1/audio/mute", `{"on":true}`); w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/v1/audio/speaker", `{"on":false}`); w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/v1/audio/mode", `{"mode":3}`); w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	if fc.recorded[2].name != "audio_mode" || fc.recorded[2].mode != 3 {
		t.Fatalf("unexpected mode dispatch: %+v", fc.recorded[2])
	}
}

func TestPlayDtmf_ValidatesDigit(t *testing.T) {
	fc := &fakeCommands{}
	r := newTestRouter(Handlers{Commands: fc})

	if w := doJSON(t, r, http.MethodPost, "/v1/dtmf/play", `{"digit":"55"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for multi-char digit, got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/v1/dtmf/play", `{"digit":"#","timed_short_tone":true}`); w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	if fc.recorded[0].digit != '#' || !fc.recorded[0].flag {
		t.Fatalf("unexpected dtmf dispatch: %+v", fc.recorded[0])
	}
}

func TestListAuditEvents_ScopedToDevice(t *testing.T) {
	repo := audit.NewMemoryRepo()
	svc := audit.NewService(repo)
	_ = svc.LogDispatched(context.Background(), "d1", "u1", "mute", 0)
	_ = svc.LogDispatched(context.Background(), "d2", "u2", "swap", 0)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), "u1", "d1", "diagnostics")
		c.Request = c.Request.WithContext(ctx)
	})
	h := Handlers{Audit: repo}
	r.GET("/v1/audit/events", h.ListAuditEvents)

	w := doJSON(t, r, http.MethodGet, "/v1/audit/events", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"mute"`) || strings.Contains(body, `"swap"`) {
		t.Fatalf("expected only d1 events, got %s", body)
	}
}

func TestListAuditEvents_RequiresIdentity(t *testing.T) {
	r := newTestRouter(Handlers{Audit: audit.NewMemoryRepo()})
	if w := doJSON(t, r, http.MethodGet, "/v1/audit/events", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", w.Code)
	}
}
