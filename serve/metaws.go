package serve

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"ssdcam/notify"
)

const (
	// Time allowed to write message to the client
	writeWait  = 10 * time.Second
	pingPeriod = 10 * time.Second
)

// MetaUpdater pushes each notification as JSON to connected websockets.
type MetaUpdater struct {
	upgrader websocket.Upgrader
	cs       map[chan []byte]bool
	addc     chan chan []byte
	delc     chan chan []byte
	notify   chan []byte
	quit     chan struct{}

	connected int32
}

func NewMetaUpdater() *MetaUpdater {
	m := &MetaUpdater{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		cs:     make(map[chan []byte]bool),
		addc:   make(chan chan []byte),
		delc:   make(chan chan []byte),
		notify: make(chan []byte),
		quit:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case c := <-m.addc:
				m.cs[c] = true
			case c := <-m.delc:
				delete(m.cs, c)
			case b := <-m.notify:
				for k := range m.cs {
					select {
					case k <- b:
					default:
						// Slow client; it will catch up on the next one.
					}
				}
			case <-m.quit:
				return
			}
		}
	}()
	return m
}

func (m *MetaUpdater) Name() string {
	return "websocket"
}

func (m *MetaUpdater) Notify(n *notify.Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	select {
	case m.notify <- b:
	case <-m.quit:
	}
	return nil
}

// Connected returns the number of subscribed sockets.
func (m *MetaUpdater) Connected() int {
	return int(atomic.LoadInt32(&m.connected))
}

func (m *MetaUpdater) Close() {
	close(m.quit)
}

func (m *MetaUpdater) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if _, ok := err.(websocket.HandshakeError); !ok {
			log.WithField("addr", r.RemoteAddr).Errorf("Websocket handshake failed for update stream: %v", err)
		}
		return
	}
	go m.serve(ws)
}

func (m *MetaUpdater) serve(ws *websocket.Conn) {
	clog := log.WithField("addr", ws.RemoteAddr())
	clog.Info("connected to detection update socket")
	defer func() {
		ws.Close()
		clog.Info("disconnected from detection update socket")
	}()
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	notifyc := make(chan []byte, 1)
	select {
	case m.addc <- notifyc:
	case <-m.quit:
		return
	}
	atomic.AddInt32(&m.connected, 1)
	defer func() {
		atomic.AddInt32(&m.connected, -1)
		select {
		case m.delc <- notifyc:
		case <-m.quit:
		}
	}()

	// Even though we don't care about incoming messages, we need to read from
	// the socket in order to process control messages.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case b := <-notifyc:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-pingTicker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		case <-closed:
			return
		case <-m.quit:
			return
		}
	}
}
