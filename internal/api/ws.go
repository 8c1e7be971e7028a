package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/starford/blockpad/internal/models"
	"github.com/starford/blockpad/internal/sse"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is a client message. Ref is echoed back on the reply.
type wsRequest struct {
	Ref     string          `json:"ref,omitempty"`
	Type    string          `json:"type"`
	BlockID string          `json:"blockId,omitempty"`
	Block   string          `json:"blockType,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Index   *int            `json:"index,omitempty"`
	Input   string          `json:"input,omitempty"`
}

// wsReply is a server message: "result", "error" or "event".
type wsReply struct {
	Ref   string `json:"ref,omitempty"`
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// handleWS handles GET /api/sessions/{id}/ws: a bidirectional editing
// channel. Client messages drive the editor; session events are pushed.
func (h *Handler) handleWS(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	// gorilla/websocket forbids concurrent writers.
	var writeMu sync.Mutex
	writeMsg := func(msg wsReply) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(msg)
	}

	if h.broker != nil {
		events := h.broker.SubscribeSession(s.ID)
		defer h.broker.Unsubscribe(events)
		go func() {
			for raw := range events {
				typ, data, ok := sse.DecodeFrame(raw)
				if !ok {
					continue
				}
				if err := writeMsg(wsReply{Type: "event", Event: typ, Data: data}); err != nil {
					return
				}
			}
		}()
	}

	ctx := r.Context()
	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		data, err := h.dispatchWS(ctx, s.ID, req)
		reply := wsReply{Ref: req.Ref, Type: "result", Data: data}
		if err != nil {
			reply = wsReply{Ref: req.Ref, Type: "error", Error: err.Error()}
		}
		if err := writeMsg(reply); err != nil {
			return
		}
	}
}

func (h *Handler) dispatchWS(ctx context.Context, id string, req wsRequest) (any, error) {
	s, err := h.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	ed := s.Editor
	switch req.Type {
	case "blocks":
		return ed.Blocks(ctx)
	case "insert":
		index := -1
		if req.Index != nil {
			index = *req.Index
		}
		newID, err := ed.Insert(ctx, req.Block, req.Data, index)
		return map[string]string{"id": newID}, err
	case "update":
		return nil, ed.Update(ctx, req.BlockID, req.Data)
	case "delete":
		return nil, ed.Delete(ctx, req.BlockID)
	case "move":
		if req.Index == nil {
			return nil, errMissingIndex
		}
		return nil, ed.Move(ctx, req.BlockID, *req.Index)
	case "focus":
		return nil, ed.Focus(ctx, req.BlockID)
	case "render":
		var snap models.Snapshot
		if err := json.Unmarshal(req.Data, &snap); err != nil {
			return nil, err
		}
		return nil, ed.Render(ctx, snap)
	case "save":
		return s.Save(ctx)
	case "command":
		return s.Command(ctx, req.Input)
	}
	return nil, errUnknownMessage(req.Type)
}
