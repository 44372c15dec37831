package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

const authWait = 10 * time.Second

// TokenResolver turns a bearer token into a principal.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*types.Principal, error)
}

// Handler upgrades HTTP requests into hub connections.
type Handler struct {
	hub      *Hub
	resolver TokenResolver
	logger   *logger.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates the websocket entry point.
func NewHandler(hub *Hub, resolver TokenResolver, log *logger.Logger) *Handler {
	return &Handler{
		hub:      hub,
		resolver: resolver,
		logger:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Access control happens in the auth handshake, not at upgrade.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the transport and runs the handshake. The peer must
// send an auth envelope first; anything else closes the channel.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	ws.SetReadDeadline(time.Now().Add(authWait))
	var first Message
	if err := ws.ReadJSON(&first); err != nil {
		ws.WriteJSON(NewAuthError("expected auth message"))
		ws.Close()
		return
	}
	if first.Type != TypeAuth || first.Token == "" {
		ws.WriteJSON(NewAuthError("expected auth message"))
		ws.Close()
		return
	}

	principal, err := h.resolver.Resolve(r.Context(), first.Token)
	if err != nil {
		ws.WriteJSON(NewAuthError("invalid token"))
		ws.Close()
		return
	}

	conn := newConnection(ws, principal.UserID, principal.Role, h.dispatch, h.logger)
	h.hub.Register(conn)

	ws.WriteJSON(&Message{
		Type:   TypeAuthSuccess,
		UserID: principal.UserID,
		Role:   string(principal.Role),
	})

	h.logger.WithUserID(principal.UserID).Info("Websocket connection established")

	go conn.writePump()
	go func() {
		conn.readPump()
		h.hub.Unregister(conn)
		h.logger.WithUserID(conn.UserID).Info("Websocket connection closed")
	}()
}

// dispatch routes one inbound message in the steady state.
func (h *Handler) dispatch(conn *Connection, msg *Message) {
	switch msg.Type {
	case TypeHeartbeat:
		conn.Enqueue(&Message{Type: TypeHeartbeatAck})

	case TypeChatMessage:
		if msg.Recipient == "" {
			conn.Enqueue(NewError("chat_message requires a recipient"))
			return
		}
		now := time.Now()
		out := &Message{
			Type:      TypeChatMessage,
			ID:        msg.ID,
			Sender:    conn.UserID,
			Recipient: msg.Recipient,
			Content:   msg.Content,
			Timestamp: &now,
		}
		conn.Enqueue(out)
		h.hub.SendToUser(msg.Recipient, out)

	case TypeVideoCallRequest, TypeVideoCallAccepted, TypeVideoCallRejected, TypeVideoCallEnded:
		if msg.To == "" {
			return
		}
		h.hub.SendToUser(msg.To, &Message{
			Type:           msg.Type,
			ConsultationID: msg.ConsultationID,
			From:           conn.UserID,
			To:             msg.To,
			Reason:         msg.Reason,
		})

	case TypeAuth:
		// Already authenticated; ignore.

	default:
		// Unknown inbound kinds are dropped silently.
	}
}
