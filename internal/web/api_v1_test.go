package web

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/retroplayer/frontpanel/internal/buttons"
	"github.com/retroplayer/frontpanel/internal/region"
	"github.com/retroplayer/frontpanel/internal/state"
)

type fakeController struct {
	mu      sync.Mutex
	frame   *image1bit.VerticalLSB
	events  []state.Event
	presses []buttons.Event
	flashes []FlashRequest
	err     error
}

func (f *fakeController) Regions() []region.State {
	return []region.State{{Name: region.Title, Owner: "track", Priority: 3, Text: "Song"}}
}

func (f *fakeController) Frame() *image1bit.VerticalLSB { return f.frame }

func (f *fakeController) Player() state.State {
	return state.State{Playback: state.PLAYING, Track: state.Track{Title: "Song"}}
}

func (f *fakeController) HandleEvent(_ context.Context, ev state.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakeController) PressButton(_ context.Context, ev buttons.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presses = append(f.presses, ev)
	return f.err
}

func (f *fakeController) Flash(_ context.Context, req FlashRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flashes = append(f.flashes, req)
	return f.err
}

func serve(t *testing.T, ctrl Controller, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	srv := &HTTPServer{Controller: ctrl}
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiError {
	t.Helper()
	var e apiError
	if err := json.NewDecoder(rec.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e
}

func TestDisplayPNG(t *testing.T) {
	frame := image1bit.NewVerticalLSB(image.Rect(0, 0, 16, 8))
	frame.SetBit(3, 2, image1bit.On)
	ctrl := &fakeController{frame: frame}

	rec := serve(t, ctrl, http.MethodGet, "/api/v1/display.png?scale=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 16 {
		t.Fatalf("bounds = %v, want 32x16", b)
	}
	if r, _, _, _ := img.At(6, 4).RGBA(); r == 0 {
		t.Error("lit pixel rendered dark")
	}
	if r, _, _, _ := img.At(0, 0).RGBA(); r != 0 {
		t.Error("dark pixel rendered lit")
	}
}

func TestDisplayBadScale(t *testing.T) {
	ctrl := &fakeController{frame: image1bit.NewVerticalLSB(image.Rect(0, 0, 8, 8))}
	rec := serve(t, ctrl, http.MethodGet, "/api/v1/display.png?scale=99", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDisplayWithoutController(t *testing.T) {
	rec := serve(t, nil, http.MethodGet, "/api/v1/display.png", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestRegionsJSON(t *testing.T) {
	rec := serve(t, &fakeController{}, http.MethodGet, "/api/v1/regions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []region.State
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Name != region.Title || got[0].Owner != "track" {
		t.Errorf("regions = %+v", got)
	}
}

func TestPlayerJSON(t *testing.T) {
	rec := serve(t, &fakeController{}, http.MethodGet, "/api/v1/player", "")
	if !strings.Contains(rec.Body.String(), `"playback":"playing"`) {
		t.Errorf("body = %s, want playback playing", rec.Body.String())
	}
}

func TestPostEvent(t *testing.T) {
	ctrl := &fakeController{}
	rec := serve(t, ctrl, http.MethodPost, "/api/v1/events", `{"kind":"track","track":{"title":"Song","durationMs":1000}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(ctrl.events) != 1 || ctrl.events[0].Track.Title != "Song" {
		t.Errorf("events = %+v", ctrl.events)
	}
}

func TestPostEventRejectsInvalid(t *testing.T) {
	ctrl := &fakeController{}
	for _, body := range []string{`{"kind":"volume"}`, `{"kind":"track"}`, `not json`, `{"kind":"alias","extra":1}`} {
		rec := serve(t, ctrl, http.MethodPost, "/api/v1/events", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, rec.Code)
		}
	}
	if len(ctrl.events) != 0 {
		t.Errorf("invalid events dispatched: %+v", ctrl.events)
	}
}

func TestEventsMethodNotAllowed(t *testing.T) {
	rec := serve(t, &fakeController{}, http.MethodGet, "/api/v1/events", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestPressButton(t *testing.T) {
	ctrl := &fakeController{}
	rec := serve(t, ctrl, http.MethodPost, "/api/v1/buttons/preset-6", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(ctrl.presses) != 1 || ctrl.presses[0] != buttons.Preset6 {
		t.Errorf("presses = %v", ctrl.presses)
	}

	rec = serve(t, ctrl, http.MethodPost, "/api/v1/buttons/eject", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown button status = %d, want 404", rec.Code)
	}
	if e := decodeError(t, rec); e.Error != "unknown_button" {
		t.Errorf("error code = %q", e.Error)
	}
}

func TestFlash(t *testing.T) {
	ctrl := &fakeController{}
	rec := serve(t, ctrl, http.MethodPost, "/api/v1/flash", `{"text":"Hi","priority":5,"durationMs":1500,"target":"title"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(ctrl.flashes) != 1 {
		t.Fatalf("flashes = %v", ctrl.flashes)
	}
	got := ctrl.flashes[0]
	if got.Text != "Hi" || got.Priority != 5 || got.Target != "title" || got.Duration().Milliseconds() != 1500 {
		t.Errorf("flash = %+v", got)
	}

	rec = serve(t, ctrl, http.MethodPost, "/api/v1/flash", `{"text":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank text status = %d, want 400", rec.Code)
	}
}

func TestFlashUnknownRegion(t *testing.T) {
	ctrl := &fakeController{err: region.ErrRegionNotFound}
	rec := serve(t, ctrl, http.MethodPost, "/api/v1/flash", `{"text":"Hi","target":"nowhere"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if e := decodeError(t, rec); e.Error != "region_not_found" {
		t.Errorf("error code = %q", e.Error)
	}
}

func TestControllerFailure(t *testing.T) {
	ctrl := &fakeController{err: errors.New("boom")}
	rec := serve(t, ctrl, http.MethodPost, "/api/v1/events", `{"kind":"alias","alias":"Car"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestEmbeddedUI(t *testing.T) {
	rec := serve(t, &fakeController{}, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "display.png") {
		t.Error("index page does not poll the display")
	}
}

func TestDevCORS(t *testing.T) {
	srv := &HTTPServer{Controller: &fakeController{}, DevCORS: true}
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/flash", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}
}
