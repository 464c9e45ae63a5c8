package hub

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	apperrors "nvivas/backend/tictactoe-ai-server/internal/errors"
	"nvivas/backend/tictactoe-ai-server/internal/interfaces"
	"nvivas/backend/tictactoe-ai-server/internal/logger"
	"nvivas/backend/tictactoe-ai-server/internal/session"
)

// detachTimeout limita la espera al desconectar un cliente de su sesión
const detachTimeout = 5 * time.Second

// Hub gestiona clientes conectados y sesiones de juego
type Hub struct {
	// Clientes conectados al servidor, por ID
	clients *xsync.MapOf[string, interfaces.Client]

	// Sesión de cada cliente conectado, por ID de cliente
	bindings *xsync.MapOf[string, *session.Session]

	// Sesiones activas
	sessions *xsync.MapOf[string, *session.Session]

	// Tiempo de inactividad tras el cual se elimina una sesión sin clientes
	ttl time.Duration

	// Contexto del que derivan las sesiones
	ctx context.Context
}

var _ interfaces.Hub = (*Hub)(nil)

// NewHub crea una nueva instancia de Hub. Las sesiones se cancelan cuando
// se cancela ctx.
func NewHub(ctx context.Context, ttl time.Duration) *Hub {
	return &Hub{
		clients:  xsync.NewMapOf[string, interfaces.Client](),
		bindings: xsync.NewMapOf[string, *session.Session](),
		sessions: xsync.NewMapOf[string, *session.Session](),
		ttl:      ttl,
		ctx:      ctx,
	}
}

// CreateSession crea una sesión nueva y hace la jugada de apertura
func (h *Hub) CreateSession(ctx context.Context) (*session.Session, error) {
	// Crear un ID único para la sesión
	id := uuid.NewString()

	s := session.New(id, h.ctx)
	h.sessions.Store(id, s)

	// Iniciar la sesión como goroutine
	go s.Run()

	if _, err := s.Start(ctx); err != nil {
		h.DeleteSession(id)
		return nil, fmt.Errorf("starting session %s: %w", id, err)
	}

	logger.Info("Sesión creada", logger.Fields{"sessionID": id})
	return s, nil
}

// Session busca una sesión activa
func (h *Hub) Session(id string) (*session.Session, error) {
	s, ok := h.sessions.Load(id)
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, apperrors.ErrSessionNotFound)
	}
	return s, nil
}

// DeleteSession cierra y elimina una sesión
func (h *Hub) DeleteSession(id string) bool {
	s, ok := h.sessions.LoadAndDelete(id)
	if ok {
		s.Close()
	}
	return ok
}

// RegisterClient conecta un cliente a la sesión sessionID, o a una sesión
// nueva si sessionID está vacío o ya no existe. Devuelve la sesión y si se
// trata de una reconexión.
func (h *Hub) RegisterClient(ctx context.Context, client interfaces.Client, sessionID string) (*session.Session, bool, error) {
	var s *session.Session
	resumed := false

	if sessionID != "" {
		if existing, err := h.Session(sessionID); err == nil {
			s = existing
			resumed = true
		} else {
			logger.Info("Sesión solicitada no encontrada, creando una nueva", logger.Fields{
				"clientID":  client.GetID(),
				"sessionID": sessionID,
			})
		}
	}

	if s == nil {
		var err error
		if s, err = h.CreateSession(ctx); err != nil {
			return nil, false, err
		}
	}

	if _, err := s.Attach(ctx, client); err != nil {
		return nil, false, err
	}

	h.clients.Store(client.GetID(), client)
	h.bindings.Store(client.GetID(), s)

	logger.Info("Cliente registrado", logger.Fields{
		"clientID":  client.GetID(),
		"sessionID": s.ID,
		"resumed":   resumed,
	})
	return s, resumed, nil
}

// UnregisterClient implements interfaces.Hub. Cuando vuelve, la sesión ya
// no envía mensajes al cliente.
func (h *Hub) UnregisterClient(client interfaces.Client) {
	h.clients.Delete(client.GetID())

	s, ok := h.bindings.LoadAndDelete(client.GetID())
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), detachTimeout)
	defer cancel()

	if err := s.Detach(ctx, client); err != nil {
		// La sesión terminó o no responde: esperar a que Run acabe para
		// que no quede ningún envío pendiente hacia el cliente
		select {
		case <-s.Done():
		case <-ctx.Done():
			logger.Warn("La sesión no terminó a tiempo", logger.Fields{
				"clientID":  client.GetID(),
				"sessionID": s.ID,
			})
		}
	}

	logger.Info("Cliente desregistrado", logger.Fields{
		"clientID":  client.GetID(),
		"sessionID": s.ID,
	})
}

// SessionCount devuelve el número de sesiones activas
func (h *Hub) SessionCount() int {
	return h.sessions.Size()
}

// ClientCount devuelve el número de clientes conectados
func (h *Hub) ClientCount() int {
	return h.clients.Size()
}

// Sweep elimina las sesiones sin clientes inactivas desde antes de now-ttl
// y devuelve cuántas eliminó.
func (h *Hub) Sweep(now time.Time) int {
	removed := 0
	h.sessions.Range(func(id string, s *session.Session) bool {
		if s.AttachedClients() == 0 && s.LastActive().Add(h.ttl).Before(now) {
			logger.Debug("Sesión expirada, eliminando", logger.Fields{
				"sessionID":  id,
				"lastActive": s.LastActive(),
			})
			if h.DeleteSession(id) {
				removed++
			}
		}
		return true
	})
	return removed
}

// Run elimina periódicamente las sesiones expiradas hasta que ctx se
// cancela; entonces cierra todas las sesiones.
func (h *Hub) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.Close()
			return ctx.Err()

		case now := <-ticker.C:
			if n := h.Sweep(now); n > 0 {
				logger.Info("Sesiones expiradas eliminadas", logger.Fields{
					"removed":  n,
					"sessions": h.SessionCount(),
				})
			}
		}
	}
}

// Close cierra todas las sesiones
func (h *Hub) Close() {
	h.sessions.Range(func(id string, _ *session.Session) bool {
		h.DeleteSession(id)
		return true
	})
	logger.Info("Hub cerrado", nil)
}
