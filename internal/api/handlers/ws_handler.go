package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/prepwise/internal/cache"
	"github.com/yoockh/prepwise/internal/models"
	mongorepo "github.com/yoockh/prepwise/internal/repositories/mongo"
	"github.com/yoockh/prepwise/internal/services"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
	historyLimit = 100
)

// SubscribeFunc streams raw payloads published on channel until ctx ends.
type SubscribeFunc func(ctx context.Context, channel string) <-chan []byte

type WSHandler struct {
	sessions  services.SessionService
	events    mongorepo.EventRepository
	subscribe SubscribeFunc
	log       *logrus.Logger
	upgrader  websocket.Upgrader
}

func NewWSHandler(sessions services.SessionService, events mongorepo.EventRepository, subscribe SubscribeFunc, log *logrus.Logger) *WSHandler {
	return &WSHandler{
		sessions:  sessions,
		events:    events,
		subscribe: subscribe,
		log:       logOrDefault(log),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) write(messageType int, b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.c.WriteMessage(messageType, b)
}

// SessionWS replays the stored events of a session, then forwards live ones.
// Every frame is one session event encoded as JSON.
func (h *WSHandler) SessionWS(c *gin.Context) {
	sessionID := c.Param("session_id")
	tagSession(c, sessionID)

	sess, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote the response
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	log := h.log.WithField("session_id", sess.ID)

	// subscribe before replaying so nothing falls between the two
	live := h.subscribe(ctx, cache.StatusChannel(sess.ID))

	var replayed replayFilter
	if h.events != nil {
		history, err := h.events.ListBySession(ctx, sess.ID, historyLimit)
		if err != nil {
			log.WithError(err).Warn("session event history unavailable")
		}
		for _, e := range history {
			b, err := json.Marshal(e)
			if err != nil {
				continue
			}
			if err := wc.write(websocket.TextMessage, b); err != nil {
				return
			}
			replayed.add(e)
		}
	}

	// reader: only keeps the deadline fresh and notices the close
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := wc.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case payload, ok := <-live:
			if !ok {
				_ = wc.write(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "subscription ended"))
				return
			}
			if replayed.seen(payload) {
				continue
			}
			if err := wc.write(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}

// replayFilter drops live events that were already sent from history. An
// event stored between the subscribe and the history query arrives on both.
// Stored timestamps have millisecond precision, so keys compare at that unit.
type replayFilter struct {
	keys map[string]struct{}
	last time.Time
}

func eventKey(step, outcome string, ts time.Time) string {
	return step + "|" + outcome + "|" + strconv.FormatInt(ts.UnixMilli(), 10)
}

func (f *replayFilter) add(e models.SessionEvent) {
	if f.keys == nil {
		f.keys = make(map[string]struct{})
	}
	f.keys[eventKey(e.Step, e.Outcome, e.Timestamp)] = struct{}{}
	if ts := e.Timestamp.Truncate(time.Millisecond); ts.After(f.last) {
		f.last = ts
	}
}

// seen reports whether payload repeats a replayed event. Once a live event
// is newer than the whole history the filter switches itself off.
func (f *replayFilter) seen(payload []byte) bool {
	if len(f.keys) == 0 {
		return false
	}
	var e models.SessionEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return false
	}
	ts := e.Timestamp.Truncate(time.Millisecond)
	if ts.After(f.last) {
		f.keys = nil
		return false
	}
	_, dup := f.keys[eventKey(e.Step, e.Outcome, e.Timestamp)]
	return dup
}
