package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"hearthd/internal/intent"
	"hearthd/internal/orchestrator"
	"hearthd/internal/proto"
)

// streamFrame is one client message on the writing socket.
type streamFrame struct {
	Action string `json:"action"`
	Text   string `json:"text,omitempty"`
	Mode   string `json:"mode,omitempty"`
	Model  string `json:"model,omitempty"`
}

// streamReply is one server message on the writing socket.
type streamReply struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Mode    string `json:"mode,omitempty"`
}

// The daemon binds to loopback for a single local writer, so origin
// checking stays permissive.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleStream is the interactive writing session: one socket per editor
// window, frames in are {action,text}, frames out are {type,content}.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		zlog.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		var frame streamFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				zlog.Debug().Err(err).Msg("stream closed unexpectedly")
			}
			return
		}
		if !s.serveFrame(conn, frame) {
			return
		}
	}
}

// serveFrame answers one frame; false ends the session.
func (s *Server) serveFrame(conn *websocket.Conn, frame streamFrame) bool {
	switch frame.Action {
	case "status":
		st := s.orch.Status()
		return writeReply(conn, streamReply{Type: "status", Content: st.LicenseTier})
	case "collapse":
		s.orch.CollapseToZero(false)
		return writeReply(conn, streamReply{Type: "collapsed"})
	case "generate", "":
		return s.streamGenerate(conn, frame)
	default:
		return writeReply(conn, streamReply{Type: "error", Content: "unknown action: " + frame.Action})
	}
}

func (s *Server) streamGenerate(conn *websocket.Conn, frame streamFrame) bool {
	if frame.Text == "" {
		return writeReply(conn, streamReply{Type: "error", Content: "text is required"})
	}

	in := intent.Parse(frame.Text, s.lic)
	switch in.Action {
	case intent.ActionStatus:
		st := s.orch.Status()
		return writeReply(conn, streamReply{Type: "status", Content: st.LicenseTier})
	case intent.ActionCollapse:
		s.orch.CollapseToZero(false)
		return writeReply(conn, streamReply{Type: "collapsed"})
	case intent.ActionDenied:
		return writeReply(conn, streamReply{Type: "error", Content: in.Message})
	case intent.ActionSwitchMode:
		return writeReply(conn, streamReply{Type: "mode", Mode: in.Mode})
	}
	mode := frame.Mode
	if mode == "" {
		mode = in.Mode
	}

	name := s.modelName(frame.Model)
	path := pathFor(s.models, name)
	if path == "" {
		return writeReply(conn, streamReply{Type: "error", Content: "unknown model: " + name})
	}

	s.orch.Request(name, false)
	defer s.orch.Release(name)

	ctx, cancel := context.WithTimeout(serverBaseCtx, s.genTimeout)
	defer cancel()
	res, err := s.orch.Generate(ctx, proto.Task{
		Type:      proto.TaskGenerate,
		Prompt:    frame.Text,
		Mode:      mode,
		ModelPath: path,
	})
	if err != nil {
		if orchestrator.IsWorkerTimeout(err) {
			timeoutCollapsesTotal.Inc()
			s.orch.CollapseToZero(true)
		}
		return writeReply(conn, streamReply{Type: "error", Content: err.Error()})
	}
	if res.Fatal {
		return writeReply(conn, streamReply{Type: "error", Content: res.Error})
	}
	return writeReply(conn, streamReply{Type: "text", Content: res.Text(), Mode: mode})
}

func writeReply(conn *websocket.Conn, reply streamReply) bool {
	if err := conn.WriteJSON(reply); err != nil {
		zlog.Debug().Err(err).Msg("stream write failed")
		return false
	}
	return true
}
