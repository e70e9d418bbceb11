package live

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to the peer with this period.
	pingPeriod = 30 * time.Second

	// Maximum message size allowed from the peer. Contact messages travel
	// as field events, so this bounds a single form field as well.
	maxMessageSize = 16 << 10
)

// Transport carries events and patches for one session.
type Transport interface {
	// Read blocks for the next inbound message.
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, p Patch) error
	Close(reason string) error
}

// Pinger is implemented by transports that need keepalives.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Conn is the websocket Transport.
type Conn struct {
	ws *websocket.Conn
}

// Accept upgrades the request. originPatterns are host patterns accepted in
// addition to the request's own host.
func Accept(w http.ResponseWriter, r *http.Request, originPatterns []string) (*Conn, error) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns,
	})
	if err != nil {
		return nil, err
	}
	ws.SetReadLimit(maxMessageSize)
	return &Conn{ws: ws}, nil
}

// NewConn wraps an established websocket, such as one from websocket.Dial.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.ws.Read(ctx)
	return data, err
}

func (c *Conn) Write(ctx context.Context, p Patch) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return wsjson.Write(ctx, c.ws, p)
}

func (c *Conn) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.ws.Ping(ctx)
}

func (c *Conn) Close(reason string) error {
	return c.ws.Close(websocket.StatusNormalClosure, reason)
}

// IsNormalClosure reports whether err is the peer going away cleanly.
func IsNormalClosure(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}
