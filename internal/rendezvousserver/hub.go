// Package rendezvousserver is the nameplate/mailbox broker half of the
// rendezvous protocol core/wire.go speaks on the client side. It is a
// package (not folded into cmd/wormhole-server/main.go) so cmd/wormhole's
// "server" subcommand can launch the same broker in-process for local
// testing, the way the teacher's ww tool bundles client and server into one
// binary.
//
// Grounded on the teacher's relay() in cmd/ww/server.go, but brokering named
// mailboxes instead of piping two raw sockets together: this protocol's
// clients exchange tagged (phase, body) messages rather than an opaque
// WebRTC SDP blob, so the server needs to understand claim/open/add instead
// of just forwarding bytes.
package rendezvousserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"nhooyr.io/websocket"

	"github.com/wormhole-core/wormhole/internal/wlog"
)

// mailboxTimeout bounds how long an opened mailbox may sit with no side
// connected before the server reclaims it.
const mailboxTimeout = 30 * time.Minute

var (
	connectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wormhole_server_connections_total",
		Help: "Total websocket connections accepted.",
	})
	allocationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wormhole_server_nameplates_allocated_total",
		Help: "Total nameplates allocated.",
	})
	messagesRelayedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wormhole_server_messages_relayed_total",
		Help: "Total mailbox messages relayed between two sides.",
	})
)

// frame mirrors the union of core/wire.go's wireOut (client to server) and
// wireIn (server to client) field sets, so one struct can decode whatever a
// client sends and encode whatever the server replies.
type frame struct {
	Type       string          `json:"type"`
	ID         string          `json:"id,omitempty"`
	AppID      string          `json:"appid,omitempty"`
	Side       string          `json:"side,omitempty"`
	Nameplate  string          `json:"nameplate,omitempty"`
	Mailbox    string          `json:"mailbox,omitempty"`
	Mood       string          `json:"mood,omitempty"`
	Phase      string          `json:"phase,omitempty"`
	Body       string          `json:"body,omitempty"`
	Welcome    json.RawMessage `json:"welcome,omitempty"`
	Nameplates []frameID       `json:"nameplates,omitempty"`
	Message    string          `json:"message,omitempty"`
}

type frameID struct {
	ID string `json:"id"`
}

// client is one bound websocket connection: a single side of a single app.
type client struct {
	conn  *websocket.Conn
	appID string
	side  string

	send chan frame

	mu        sync.Mutex
	nameplate string
	mailbox   string
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, send: make(chan frame, 16)}
}

func (c *client) writer(ctx context.Context, log *wlog.Logger) {
	for f := range c.send {
		buf, err := json.Marshal(f)
		if err != nil {
			continue
		}
		if err := c.conn.Write(ctx, websocket.MessageText, buf); err != nil {
			return
		}
	}
}

func (c *client) reply(log *wlog.Logger, f frame) {
	select {
	case c.send <- f:
	default:
		log.Errorf("client send buffer full, dropping %s frame", f.Type)
	}
}

// nameplateEntry maps an allocated nameplate to the mailbox it will claim
// into, and counts how many sides have claimed it.
type nameplateEntry struct {
	mailbox string
	claims  int
}

// mailboxEntry is a named broadcast group of at most two clients, plus the
// message history needed so the second side to open it sees everything the
// first side already added.
type mailboxEntry struct {
	clients []*client
	history []frame
	timer   *time.Timer
}

// Hub is the server-side broker state for one rendezvous service. Create
// one with New and hand it to a net/http server via Handler.
type Hub struct {
	log *wlog.Logger

	mu         sync.Mutex
	nameplates map[string]map[string]*nameplateEntry // appID -> nameplate -> entry
	mailboxes  map[string]map[string]*mailboxEntry   // appID -> mailbox -> entry
}

// New returns an empty Hub logging at the given level.
func New(level wlog.Level) *Hub {
	return &Hub{
		log:        wlog.New(level),
		nameplates: make(map[string]map[string]*nameplateEntry),
		mailboxes:  make(map[string]map[string]*mailboxEntry),
	}
}

// Handler accepts an incoming websocket upgrade and serves it until the
// connection closes.
func (h *Hub) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Checking origin only matters if requests change user state on the
		// server via CSRF; this server has no cookie-authenticated state.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Errorf("accept: %v", err)
		return
	}
	connectionsTotal.Inc()
	conn.SetReadLimit(32 << 20)
	h.serve(r.Context(), conn)
}

func (h *Hub) serve(ctx context.Context, conn *websocket.Conn) {
	c := newClient(conn)
	go c.writer(ctx, h.log)
	defer close(c.send)
	defer h.disconnect(c)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var in frame
		if err := json.Unmarshal(data, &in); err != nil {
			c.reply(h.log, frame{Type: "error", Message: "bad json"})
			continue
		}
		h.dispatch(c, in)
	}
}

func (h *Hub) dispatch(c *client, in frame) {
	switch in.Type {
	case "bind":
		c.appID = in.AppID
		c.side = in.Side
		c.reply(h.log, frame{Type: "welcome", Welcome: json.RawMessage(`{}`)})
	case "list":
		c.reply(h.log, frame{Type: "nameplates", Nameplates: h.list(c.appID)})
	case "allocate":
		nameplate := h.allocate(c.appID)
		c.reply(h.log, frame{Type: "allocated", Nameplate: nameplate})
	case "claim":
		mailbox, err := h.claim(c.appID, in.Nameplate)
		if err != nil {
			c.reply(h.log, frame{Type: "error", Message: err.Error()})
			return
		}
		c.mu.Lock()
		c.nameplate = in.Nameplate
		c.mu.Unlock()
		c.reply(h.log, frame{Type: "claimed", Mailbox: mailbox})
	case "release":
		h.release(c)
		c.reply(h.log, frame{Type: "released"})
	case "open":
		h.open(c, in.Mailbox)
	case "add":
		h.add(c, in)
	case "close":
		h.closeClient(c)
		c.reply(h.log, frame{Type: "closed"})
	case "ping":
		c.reply(h.log, frame{Type: "pong", ID: in.ID})
	default:
		c.reply(h.log, frame{Type: "error", Message: fmt.Sprintf("unknown frame type %q", in.Type)})
	}
}

func (h *Hub) list(appID string) []frameID {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []frameID
	for id := range h.nameplates[appID] {
		out = append(out, frameID{ID: id})
	}
	return out
}

// freeNameplate finds an unused small decimal nameplate, favouring smaller
// numbers the same way the teacher's freeslot does.
func freeNameplate(taken map[string]*nameplateEntry) string {
	for i := 0; i < 1000; i++ {
		s := strconv.Itoa(rand.Intn(1000))
		if _, ok := taken[s]; !ok {
			return s
		}
	}
	for {
		s := strconv.Itoa(rand.Intn(1 << 24))
		if _, ok := taken[s]; !ok {
			return s
		}
	}
}

func (h *Hub) allocate(appID string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.nameplates[appID] == nil {
		h.nameplates[appID] = make(map[string]*nameplateEntry)
	}
	nameplate := freeNameplate(h.nameplates[appID])
	// The real protocol allows an independent mailbox id; this server keeps
	// them equal, which is simplest and all a nameplate is used for here.
	h.nameplates[appID][nameplate] = &nameplateEntry{mailbox: nameplate}
	allocationsTotal.Inc()
	return nameplate
}

func (h *Hub) claim(appID, nameplate string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.nameplates[appID] == nil {
		h.nameplates[appID] = make(map[string]*nameplateEntry)
	}
	entry, ok := h.nameplates[appID][nameplate]
	if !ok {
		entry = &nameplateEntry{mailbox: nameplate}
		h.nameplates[appID][nameplate] = entry
	}
	if entry.claims >= 2 {
		return "", fmt.Errorf("nameplate %s already claimed by two sides", nameplate)
	}
	entry.claims++
	return entry.mailbox, nil
}

func (h *Hub) release(c *client) {
	c.mu.Lock()
	nameplate := c.nameplate
	c.nameplate = ""
	c.mu.Unlock()
	if nameplate == "" {
		return
	}
	h.mu.Lock()
	if entry := h.nameplates[c.appID][nameplate]; entry != nil {
		entry.claims--
		if entry.claims <= 0 {
			delete(h.nameplates[c.appID], nameplate)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) open(c *client, mailbox string) {
	h.mu.Lock()
	if h.mailboxes[c.appID] == nil {
		h.mailboxes[c.appID] = make(map[string]*mailboxEntry)
	}
	entry, ok := h.mailboxes[c.appID][mailbox]
	if !ok {
		entry = &mailboxEntry{}
		h.mailboxes[c.appID][mailbox] = entry
	}
	entry.clients = append(entry.clients, c)
	if entry.timer != nil {
		entry.timer.Stop()
		entry.timer = nil
	}
	history := append([]frame(nil), entry.history...)
	h.mu.Unlock()

	c.mu.Lock()
	c.mailbox = mailbox
	c.mu.Unlock()

	for _, f := range history {
		c.reply(h.log, f)
	}
}

func (h *Hub) add(c *client, in frame) {
	c.mu.Lock()
	mailbox := c.mailbox
	c.mu.Unlock()
	if mailbox == "" {
		c.reply(h.log, frame{Type: "error", Message: "add before open"})
		return
	}

	out := frame{Type: "message", Side: c.side, Phase: in.Phase, Body: in.Body}

	h.mu.Lock()
	entry := h.mailboxes[c.appID][mailbox]
	var peers []*client
	if entry != nil {
		entry.history = append(entry.history, out)
		peers = append(peers, entry.clients...)
	}
	h.mu.Unlock()

	for _, peer := range peers {
		peer.reply(h.log, out)
	}
	messagesRelayedTotal.Inc()
	c.reply(h.log, frame{Type: "ack", ID: in.ID})
}

func (h *Hub) closeClient(c *client) {
	c.mu.Lock()
	mailbox := c.mailbox
	appID := c.appID
	c.mailbox = ""
	c.mu.Unlock()

	h.closeMailbox(appID, mailbox)
	h.release(c)
}

func (h *Hub) closeMailbox(appID, mailbox string) {
	if mailbox == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.mailboxes[appID], mailbox)
}

func (h *Hub) disconnect(c *client) {
	c.mu.Lock()
	mailbox := c.mailbox
	c.mu.Unlock()

	if mailbox != "" {
		h.mu.Lock()
		if entry := h.mailboxes[c.appID][mailbox]; entry != nil {
			entry.clients = removeClient(entry.clients, c)
			if len(entry.clients) == 0 {
				appID := c.appID
				entry.timer = time.AfterFunc(mailboxTimeout, func() {
					h.closeMailbox(appID, mailbox)
				})
			}
		}
		h.mu.Unlock()
	}
	h.release(c)
}

func removeClient(clients []*client, target *client) []*client {
	out := clients[:0]
	for _, c := range clients {
		if c != target {
			out = append(out, c)
		}
	}
	return out
}
