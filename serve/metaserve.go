package serve

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"ssdcam/detect"
	"ssdcam/model"
	"ssdcam/overlay"
	"ssdcam/store"
)

type Snapshotter interface {
	Snapshot() []detect.Object
}

type MetaEntry struct {
	Label string
	detect.Object
}

type MetaResponse struct {
	Width, Height int
	Items         []*MetaEntry
	ItemsCount    int
}

// MetaServer serves the current detections as JSON and as a transparent
// overlay image.
type MetaServer struct {
	Source Snapshotter
	Labels model.Labels
	State  *overlay.State
	Style  overlay.Style
	// MaxObjects bounds the boxes drawn on the overlay image. Optional.
	MaxObjects func() int
}

func (s *MetaServer) BuildResponse() *MetaResponse {
	resp := &MetaResponse{Items: []*MetaEntry{}}
	resp.Width, resp.Height, _ = s.State.Geometry()
	for _, o := range s.Source.Snapshot() {
		label, _ := s.Labels.Lookup(o.ClassID)
		resp.Items = append(resp.Items, &MetaEntry{Label: label, Object: o})
	}
	resp.ItemsCount = len(resp.Items)
	return resp
}

func (s *MetaServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	js, err := json.Marshal(s.BuildResponse())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(js)
}

// ServeOverlay renders the current detections onto a transparent PNG the size
// of the video frame.
func (s *MetaServer) ServeOverlay(w http.ResponseWriter, r *http.Request) {
	width, height, ok := s.State.Geometry()
	if !ok {
		http.Error(w, "video format not yet known", http.StatusServiceUnavailable)
		return
	}
	c := overlay.NewImageCanvas(width, height)
	rd := &overlay.Renderer{Style: s.Style}
	if s.MaxObjects != nil {
		rd.MaxObjects = s.MaxObjects()
	}
	rd.Render(c, s.Source.Snapshot(), s.Labels)

	var buf bytes.Buffer
	if err := c.EncodePNG(&buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

type EventSource interface {
	Recent(limit int) ([]store.Event, error)
}

const defaultHistoryLimit = 50

// HistoryServer serves recently logged detection events.
type HistoryServer struct {
	Events EventSource
}

func (s *HistoryServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit := defaultHistoryLimit
	if l := r.Form.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	events, err := s.Events.Recent(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []store.Event{}
	}
	js, err := json.Marshal(events)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(js)
}
