package observer

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"voxelminer.ai/internal/protocol"
)

type Server struct {
	hub     *Hub
	welcome protocol.WelcomeMsg
	log     *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(hub *Hub, welcome protocol.WelcomeMsg, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	welcome.Type = protocol.TypeWelcome
	welcome.ProtocolVersion = protocol.Version
	return &Server{
		hub:     hub,
		welcome: welcome,
		log:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// WSHandler serves the trace stream. The client sends HELLO, receives WELCOME, the
// buffered backlog as one TRACE batch and the latest VOXELS view if any, then live
// TRACE and VOXELS messages.
func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var hello protocol.HelloMsg
		if err := json.Unmarshal(msg, &hello); err != nil || hello.Type != protocol.TypeHello {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
			return
		}
		if hello.ProtocolVersion != protocol.Version {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, protocol.ErrProtoBadRequest), time.Now().Add(time.Second))
			return
		}

		id, out, backlog, view := s.hub.join(4096, hello.SinceTick)
		defer s.hub.unsubscribe(id)

		if err := conn.WriteJSON(s.welcome); err != nil {
			return
		}
		if err := conn.WriteJSON(protocol.TraceMsg{
			Type:            protocol.TypeTrace,
			ProtocolVersion: protocol.Version,
			Events:          backlog,
		}); err != nil {
			return
		}
		if view != nil {
			if err := conn.WriteMessage(websocket.TextMessage, view); err != nil {
				return
			}
		}
		s.log.Printf("observer connected: %s", r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Reader: only control frames and close are expected.
		go func() {
			defer cancel()
			for {
				_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
				return
			case b := <-out:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
