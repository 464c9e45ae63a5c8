package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"nvivas/backend/tictactoe-ai-server/internal/errors"
	"nvivas/backend/tictactoe-ai-server/internal/game"
	"nvivas/backend/tictactoe-ai-server/internal/interfaces"
	"nvivas/backend/tictactoe-ai-server/internal/logger"
	"nvivas/backend/tictactoe-ai-server/internal/session"
	"nvivas/backend/tictactoe-ai-server/pkg/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	maxMessageSize = 1024
	sendBuffer     = 16
)

// Client representa una conexión de cliente WebSocket
type Client struct {
	ID      string
	Hub     interfaces.Hub
	Session *session.Session
	Conn    *websocket.Conn
	Send    chan []byte

	ctx context.Context
}

// NewClient crea un cliente para la conexión conn
func NewClient(id string, hub interfaces.Hub, conn *websocket.Conn, ctx context.Context) *Client {
	return &Client{
		ID:   id,
		Hub:  hub,
		Conn: conn,
		Send: make(chan []byte, sendBuffer),
		ctx:  ctx,
	}
}

// GetID implements interfaces.Client
func (c *Client) GetID() string {
	return c.ID
}

// GetSendChannel implements interfaces.Client
func (c *Client) GetSendChannel() chan []byte {
	return c.Send
}

// ReadPump maneja la lectura de mensajes desde el WebSocket
func (c *Client) ReadPump() {
	defer func() {
		// Desregistrar primero: al volver, la sesión ya no escribe en Send
		if c.Hub != nil {
			c.Hub.UnregisterClient(c)
		}
		close(c.Send)
		c.Conn.Close()
	}()

	// Configurar conexión
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				logger.Warn("Conexión cerrada inesperadamente", logger.Fields{
					"clientID": c.ID,
					"error":    err.Error(),
				})
			}
			return
		}

		c.handleMessage(message)
	}
}

// handleMessage procesa un mensaje recibido del cliente
func (c *Client) handleMessage(message []byte) {
	// Deserializar el mensaje recibido
	var envelope models.Envelope
	if err := json.Unmarshal(message, &envelope); err != nil {
		errors.InvalidMessage(c.Send, c.ID)
		return
	}

	if c.Session == nil {
		errors.SendError(c.Send, errors.ErrorSessionNotFound, "No hay ninguna sesión activa", c.ID)
		return
	}

	// Manejar el mensaje según su tipo
	switch envelope.Type {
	case models.TypeMakeMove:
		var movePayload models.MakeMovePayload
		if err := json.Unmarshal(envelope.Payload, &movePayload); err != nil {
			errors.InvalidPayload(c.Send, "movimiento", c.ID)
			return
		}

		// El resultado llega por broadcast de la sesión
		if _, err := c.Session.Move(c.ctx, movePayload.Move.X, movePayload.Move.Y); err != nil {
			errors.FromError(c.Send, err, c.ID)
		}

	case models.TypeStartGame:
		if _, err := c.Session.Start(c.ctx); err != nil {
			errors.FromError(c.Send, err, c.ID)
		}

	case models.TypeResetGame:
		if _, err := c.Session.Reset(c.ctx); err != nil {
			errors.FromError(c.Send, err, c.ID)
		}

	case models.TypeGetState:
		snap, err := c.Session.State(c.ctx)
		if err != nil {
			errors.FromError(c.Send, err, c.ID)
			return
		}
		c.sendState(snap)

	default:
		errors.UnknownMessageType(c.Send, envelope.Type, c.ID)
	}
}

// SendSessionStarted informa al cliente de la sesión asignada y su estado
func (c *Client) SendSessionStarted(resumed bool) {
	if c.Session == nil {
		return
	}

	c.send(models.SessionStartedResponse{
		Type:      models.TypeSessionStarted,
		SessionID: c.Session.ID,
		Resumed:   resumed,
	})

	snap, err := c.Session.State(c.ctx)
	if err != nil {
		errors.FromError(c.Send, err, c.ID)
		return
	}
	c.sendState(snap)
}

func (c *Client) sendState(snap game.Snapshot) {
	c.send(session.StateResponse(c.Session.ID, snap))
	if snap.Outcome.IsDecided() {
		c.send(session.GameOverResponse(snap))
	}
}

func (c *Client) send(v any) {
	msgBytes, err := json.Marshal(v)
	if err != nil {
		errors.Internal(c.Send, c.ID)
		return
	}

	select {
	case c.Send <- msgBytes:
	default:
		logger.Warn("No se pudo enviar mensaje, canal lleno", logger.Fields{
			"clientID": c.ID,
		})
	}
}

// WritePump maneja el envío de mensajes al WebSocket
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// El canal Send está cerrado
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Un mensaje JSON por frame
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}
