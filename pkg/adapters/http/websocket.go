package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// socketReply is written for each ChatRequest frame.
type socketReply struct {
	*domain.TurnResult
	Error string `json:"error,omitempty"`
}

// ChatSocket handles the GET /ws request. Each text frame carries a
// ChatRequest; the conversation id of the first reply is reused when later
// frames omit it.
func (s *Server) ChatSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.originPatterns()})
	if err != nil {
		s.logger.Warn("WS: Upgrade failed", "err", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	var current string
	for {
		var req ChatRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, ctx.Err()) {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			s.logger.Debug("WS: Read failed", "err", err)
			conn.Close(websocket.StatusUnsupportedData, "expected a chat request")
			return
		}
		if req.ConversationID == nil && current != "" {
			req.ConversationID = &current
		}

		res, _, err := s.turn(ctx, req)
		reply := socketReply{TurnResult: res}
		if err != nil {
			reply.Error = err.Error()
		} else {
			current = res.ConversationID
		}
		if err := wsjson.Write(ctx, conn, reply); err != nil {
			s.logger.Debug("WS: Write failed", "err", err)
			return
		}
	}
}

func (s *Server) originPatterns() []string {
	switch s.corsOrigin {
	case "":
		return nil
	case "*":
		return []string{"*"}
	}
	host := s.corsOrigin
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	return []string{host}
}
