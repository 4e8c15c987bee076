package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/rfqpilot/internal/llm"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
	"github.com/ziadkadry99/rfqpilot/internal/user"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Type    string        `json:"type"` // "message"
	Seq     int64         `json:"seq"`
	RfqID   string        `json:"rfq_id"`
	Content string        `json:"content"`
	History []llm.Message `json:"history,omitempty"`
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type    string   `json:"type"` // "response" or "error"
	Seq     int64    `json:"seq"`
	Reply   string   `json:"reply,omitempty"`
	Rfq     *rfq.Rfq `json:"rfq,omitempty"`
	Changed bool     `json:"changed,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// chatConn serves one websocket. Turns run concurrently; a turn's changes
// are saved and its reply delivered only if no newer message was sent
// meanwhile.
type chatConn struct {
	conn    *websocket.Conn
	chatter *Chatter
	owner   string

	writeMu sync.Mutex
	latest  atomic.Int64
	// commitMu orders saves against newer messages: a turn observed after
	// a commit loads the committed RFQ.
	commitMu sync.Mutex
}

func (c *chatConn) send(resp wsResponse) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(resp); err != nil {
		c.chatter.logger().Warn("websocket write failed", "error", err)
	}
}

// observe records seq and reports whether it is the newest seen.
func (c *chatConn) observe(seq int64) bool {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()
	for {
		cur := c.latest.Load()
		if seq < cur {
			return false
		}
		if c.latest.CompareAndSwap(cur, seq) {
			return true
		}
	}
}

func (c *chatConn) stale(seq int64) bool {
	return seq < c.latest.Load()
}

// commit runs save unless seq has been superseded.
func (c *chatConn) commit(seq int64) func(save func() error) (bool, error) {
	return func(save func() error) (bool, error) {
		c.commitMu.Lock()
		defer c.commitMu.Unlock()
		if c.stale(seq) {
			return false, nil
		}
		return true, save()
	}
}

func (c *chatConn) run(ctx context.Context, req wsRequest) {
	res, err := c.chatter.Run(ctx, c.owner, Turn{
		RfqID:   req.RfqID,
		History: req.History,
		Message: req.Content,
		Commit:  c.commit(req.Seq),
	})
	if c.stale(req.Seq) {
		c.chatter.logger().Debug("dropping stale chat reply", "seq", req.Seq, "latest", c.latest.Load())
		return
	}
	if err != nil {
		msg := err.Error()
		if errors.Is(err, ErrRFQNotFound) {
			msg = "rfq not found"
		}
		c.send(wsResponse{Type: "error", Seq: req.Seq, Error: msg})
		return
	}
	c.send(wsResponse{Type: "response", Seq: req.Seq, Reply: res.Reply, Rfq: res.Rfq, Changed: res.Changed})
}

func (c *Chatter) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id, _ := user.FromContext(r.Context())
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger().Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	cc := &chatConn{conn: conn, chatter: c, owner: id.ID}
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger().Warn("websocket read failed", "error", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			cc.send(wsResponse{Type: "error", Error: "invalid message format"})
			continue
		}
		if req.Type != "message" {
			cc.send(wsResponse{Type: "error", Seq: req.Seq, Error: "unknown message type: " + req.Type})
			continue
		}
		if req.Content == "" {
			cc.send(wsResponse{Type: "error", Seq: req.Seq, Error: "content is required"})
			continue
		}
		if !cc.observe(req.Seq) {
			// Arrived after a newer message; nobody is waiting for it.
			continue
		}

		wg.Add(1)
		go func(req wsRequest) {
			defer wg.Done()
			cc.run(ctx, req)
		}(req)
	}
}
