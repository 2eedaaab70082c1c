package serve

import (
	"net/http"
	_ "net/http/pprof"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type Routes struct {
	Meta    *MetaServer
	Updates *MetaUpdater
	MJPEG   http.Handler
	// History is optional.
	History  *HistoryServer
	Gatherer prometheus.Gatherer
}

// Handler builds the HTTP surface with request logging.
func (rt *Routes) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/detections", rt.Meta)
	mux.HandleFunc("/overlay.png", rt.Meta.ServeOverlay)
	mux.Handle("/events", rt.Updates)
	if rt.MJPEG != nil {
		mux.Handle("/mjpeg", rt.MJPEG)
	}
	if rt.History != nil {
		mux.Handle("/history", rt.History)
	}
	if rt.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(rt.Gatherer, promhttp.HandlerOpts{}))
	}
	mux.Handle("/debug/pprof/", http.DefaultServeMux)
	return handlers.LoggingHandler(log.StandardLogger().WriterLevel(log.DebugLevel), mux)
}
