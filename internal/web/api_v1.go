package web

import (
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"

	"github.com/retroplayer/frontpanel/internal/buttons"
	"github.com/retroplayer/frontpanel/internal/region"
	"github.com/retroplayer/frontpanel/internal/render"
	"github.com/retroplayer/frontpanel/internal/state"
)

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

const (
	maxBodyBytes = 64 << 10
	maxScale     = 8
)

func apiV1Router(ctrl Controller) http.Handler {
	if ctrl == nil {
		ctrl = NoopController{}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/display.png", func(w http.ResponseWriter, r *http.Request) { handleDisplay(w, r, ctrl) })
	mux.HandleFunc("/regions", func(w http.ResponseWriter, r *http.Request) { handleRegions(w, r, ctrl) })
	mux.HandleFunc("/player", func(w http.ResponseWriter, r *http.Request) { handlePlayer(w, r, ctrl) })
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) { handleEvent(w, r, ctrl) })
	mux.HandleFunc("/buttons/", func(w http.ResponseWriter, r *http.Request) { handleButton(w, r, ctrl) })
	mux.HandleFunc("/flash", func(w http.ResponseWriter, r *http.Request) { handleFlash(w, r, ctrl) })
	return mux
}

// handleDisplay renders the current buffer as PNG, lit pixels in the
// panel foreground colour. ?scale=N enlarges it for a browser.
func handleDisplay(w http.ResponseWriter, r *http.Request, ctrl Controller) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	frame := ctrl.Frame()
	if frame == nil {
		writeAPIError(w, http.StatusServiceUnavailable, "no_display", "display not configured")
		return
	}
	scale := 1
	if raw := r.URL.Query().Get("scale"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxScale {
			writeAPIError(w, http.StatusBadRequest, "bad_scale", "scale must be 1-8")
			return
		}
		scale = n
	}

	b := frame.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	xdraw.NearestNeighbor.Scale(out, out.Bounds(), colourFrame(frame), b, xdraw.Src, nil)

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_ = png.Encode(w, out)
}

func colourFrame(frame image.Image) *image.RGBA {
	b := frame.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, _, _, _ := frame.At(x, y).RGBA()
			if r != 0 {
				out.SetRGBA(x, y, render.Foreground)
			} else {
				out.SetRGBA(x, y, render.Background)
			}
		}
	}
	return out
}

func handleRegions(w http.ResponseWriter, r *http.Request, ctrl Controller) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	regions := ctrl.Regions()
	if regions == nil {
		regions = []region.State{}
	}
	writeJSON(w, http.StatusOK, regions)
}

func handlePlayer(w http.ResponseWriter, r *http.Request, ctrl Controller) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, ctrl.Player())
}

func handleEvent(w http.ResponseWriter, r *http.Request, ctrl Controller) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	var ev state.Event
	if err := decodeBody(w, r, &ev); err != nil {
		writeAPIError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if err := ev.Validate(); err != nil {
		writeAPIError(w, http.StatusBadRequest, "bad_event", err.Error())
		return
	}
	if err := ctrl.HandleEvent(r.Context(), ev); err != nil {
		writeControllerError(w, "event_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func handleButton(w http.ResponseWriter, r *http.Request, ctrl Controller) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/buttons/"), "/")
	ev, err := buttons.ParseEvent(name)
	if err != nil {
		writeAPIError(w, http.StatusNotFound, "unknown_button", err.Error())
		return
	}
	if err := ctrl.PressButton(r.Context(), ev); err != nil {
		writeControllerError(w, "button_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// handleFlash queues a timed message; the response does not wait for it
// to be shown.
func handleFlash(w http.ResponseWriter, r *http.Request, ctrl Controller) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	var req FlashRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeAPIError(w, http.StatusBadRequest, "bad_request", "text is required")
		return
	}
	if req.DurationMs < 0 {
		writeAPIError(w, http.StatusBadRequest, "bad_request", "durationMs must not be negative")
		return
	}
	if err := ctrl.Flash(r.Context(), req); err != nil {
		writeControllerError(w, "flash_failed", err)
		return
	}
	writeJSON(w, http.StatusAccepted, okResponse{OK: true})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeControllerError(w http.ResponseWriter, code string, err error) {
	switch {
	case errors.Is(err, region.ErrRegionNotFound):
		writeAPIError(w, http.StatusNotFound, "region_not_found", err.Error())
	case errors.Is(err, render.ErrDisplayUnavailable):
		writeAPIError(w, http.StatusServiceUnavailable, "display_unavailable", err.Error())
	case errors.Is(err, errNotConfigured):
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", err.Error())
	default:
		writeAPIError(w, http.StatusInternalServerError, code, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: code, Message: message})
}
