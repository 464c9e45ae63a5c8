package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "nvivas/backend/tictactoe-ai-server/internal/errors"
	"nvivas/backend/tictactoe-ai-server/internal/game"
	"nvivas/backend/tictactoe-ai-server/internal/hub"
	"nvivas/backend/tictactoe-ai-server/internal/logger"
	"nvivas/backend/tictactoe-ai-server/internal/session"
	"nvivas/backend/tictactoe-ai-server/pkg/models"
)

// maxBodySize limita el cuerpo de las peticiones JSON
const maxBodySize = 1 << 10

type handlers struct {
	hub *hub.Hub
}

// NewRouter registra las rutas HTTP. ws atiende /ws si no es nil.
func NewRouter(h *hub.Hub, ws http.Handler) http.Handler {
	r := chi.NewRouter()
	hs := &handlers{hub: h}

	r.Get("/health", hs.health)
	if ws != nil {
		r.Handle("/ws", ws)
	}

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", hs.create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", hs.state)
			r.Delete("/", hs.delete)
			r.Post("/moves", hs.move)
			r.Post("/reset", hs.reset)
		})
	})
	return r
}

func (hs *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:   "ok",
		Sessions: hs.hub.SessionCount(),
		Clients:  hs.hub.ClientCount(),
	})
}

func (hs *handlers) create(w http.ResponseWriter, r *http.Request) {
	s, err := hs.hub.CreateSession(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := s.State(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+s.ID)
	writeJSON(w, http.StatusCreated, session.StateResponse(s.ID, snap))
}

func (hs *handlers) state(w http.ResponseWriter, r *http.Request) {
	hs.withSession(w, r, func(s *session.Session) (game.Snapshot, error) {
		return s.State(r.Context())
	})
}

func (hs *handlers) move(w http.ResponseWriter, r *http.Request) {
	var payload models.MovePayload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		writeErrorType(w, apperrors.ErrorInvalidPayload, "Datos inválidos: movimiento")
		return
	}

	hs.withSession(w, r, func(s *session.Session) (game.Snapshot, error) {
		return s.Move(r.Context(), payload.X, payload.Y)
	})
}

func (hs *handlers) reset(w http.ResponseWriter, r *http.Request) {
	hs.withSession(w, r, func(s *session.Session) (game.Snapshot, error) {
		return s.Reset(r.Context())
	})
}

func (hs *handlers) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !hs.hub.DeleteSession(id) {
		writeErrorType(w, apperrors.ErrorSessionNotFound, "Sesión no encontrada: "+id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// withSession busca la sesión {id}, aplica op y responde con el estado
func (hs *handlers) withSession(w http.ResponseWriter, r *http.Request, op func(*session.Session) (game.Snapshot, error)) {
	s, err := hs.hub.Session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := op(s)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.StateResponse(s.ID, snap))
}

func writeError(w http.ResponseWriter, err error) {
	code := apperrors.Code(err)
	msg := err.Error()
	if code == apperrors.ErrorInternal {
		logger.Error("Error interno en la API", logger.Fields{"error": err.Error()})
		msg = "Error interno del servidor"
	}
	writeErrorType(w, code, msg)
}

func writeErrorType(w http.ResponseWriter, errorType, message string) {
	writeJSON(w, apperrors.HTTPStatus(errorType), models.ErrorResponse{
		Type:    errorType,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("No se pudo escribir la respuesta", logger.Fields{"error": err.Error()})
	}
}
