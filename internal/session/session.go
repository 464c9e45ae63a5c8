package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	apperrors "nvivas/backend/tictactoe-ai-server/internal/errors"
	"nvivas/backend/tictactoe-ai-server/internal/game"
	"nvivas/backend/tictactoe-ai-server/internal/interfaces"
	"nvivas/backend/tictactoe-ai-server/internal/logger"
	"nvivas/backend/tictactoe-ai-server/pkg/models"
)

// ErrClosed se devuelve cuando la sesión ya no acepta peticiones
var ErrClosed = fmt.Errorf("%w: session closed", apperrors.ErrSessionNotFound)

type op uint8

const (
	opStart op = iota
	opMove
	opReset
	opState
	opAttach
	opDetach
)

func (o op) String() string {
	switch o {
	case opStart:
		return "start"
	case opMove:
		return "move"
	case opReset:
		return "reset"
	case opState:
		return "state"
	case opAttach:
		return "attach"
	case opDetach:
		return "detach"
	default:
		return "unknown"
	}
}

// request es una operación enviada al bucle de la sesión
type request struct {
	op     op
	x, y   int
	client interfaces.Client
	reply  chan result
}

type result struct {
	snapshot game.Snapshot
	err      error
}

// Session es una partida contra el oponente automático. El controlador sólo
// se usa desde la goroutine de Run, así que todas las operaciones pasan por
// el canal de peticiones.
type Session struct {
	ID      string                     // Identificador único de la sesión
	Clients map[interfaces.Client]bool // Clientes conectados, sólo desde Run

	controller *game.Controller
	requests   chan request

	lastActive atomic.Int64 // UnixNano de la última operación
	attached   atomic.Int32 // len(Clients), legible desde otras goroutines

	// Context para control de cancelación
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New crea una nueva sesión. Hay que lanzar Run para que atienda peticiones.
func New(id string, parentCtx context.Context) *Session {
	// Crear un contexto derivado que se pueda cancelar independientemente
	ctx, cancel := context.WithCancel(parentCtx)

	s := &Session{
		ID:         id,
		Clients:    make(map[interfaces.Client]bool),
		controller: game.NewController(),
		requests:   make(chan request),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	s.touch()
	return s
}

// Close cancela el contexto de la sesión; Done se cierra cuando Run termina
func (s *Session) Close() {
	s.cancel()
	logger.Info("Sesión cerrada", logger.Fields{"sessionID": s.ID})
}

// Done se cierra cuando Run termina
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// LastActive devuelve el momento de la última operación
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// AttachedClients devuelve el número de clientes conectados
func (s *Session) AttachedClients() int {
	return int(s.attached.Load())
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// Start empieza una partida nueva con la apertura automática
func (s *Session) Start(ctx context.Context) (game.Snapshot, error) {
	return s.do(ctx, request{op: opStart})
}

// Move aplica la jugada externa en (x, y) y la respuesta automática
func (s *Session) Move(ctx context.Context, x, y int) (game.Snapshot, error) {
	return s.do(ctx, request{op: opMove, x: x, y: y})
}

// Reset vacía el tablero; la siguiente jugada externa abre la partida
func (s *Session) Reset(ctx context.Context) (game.Snapshot, error) {
	return s.do(ctx, request{op: opReset})
}

// State devuelve el estado actual sin modificarlo
func (s *Session) State(ctx context.Context) (game.Snapshot, error) {
	return s.do(ctx, request{op: opState})
}

// Attach conecta un cliente para que reciba los cambios de estado
func (s *Session) Attach(ctx context.Context, client interfaces.Client) (game.Snapshot, error) {
	return s.do(ctx, request{op: opAttach, client: client})
}

// Detach desconecta un cliente. Al volver, la sesión ya no le envía nada.
func (s *Session) Detach(ctx context.Context, client interfaces.Client) error {
	_, err := s.do(ctx, request{op: opDetach, client: client})
	return err
}

func (s *Session) do(ctx context.Context, req request) (game.Snapshot, error) {
	req.reply = make(chan result, 1)

	select {
	case s.requests <- req:
	case <-s.ctx.Done():
		return game.Snapshot{}, ErrClosed
	case <-ctx.Done():
		return game.Snapshot{}, ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res.snapshot, res.err
	case <-ctx.Done():
		return game.Snapshot{}, ctx.Err()
	}
}

// Run inicia el bucle principal de la sesión
func (s *Session) Run() {
	defer func() {
		// Cleanup cuando Run termina
		logger.Info("Finalizando Session.Run, liberando recursos", logger.Fields{
			"sessionID": s.ID,
		})

		// Informar a los clientes que la sesión se ha cerrado
		closeMsg, _ := json.Marshal(models.BaseMessage{Type: models.TypeSessionClosed})
		s.broadcast(closeMsg)

		// Limpiar el mapa de clientes
		s.Clients = make(map[interfaces.Client]bool)
		s.attached.Store(0)
		close(s.done)
	}()

	for {
		select {
		case <-s.ctx.Done():
			// Contexto cancelado, terminar
			logger.Info("Contexto cancelado, terminando Session.Run", logger.Fields{
				"sessionID": s.ID,
			})
			return

		case req := <-s.requests:
			s.touch()
			req.reply <- s.handle(req)
		}
	}
}

func (s *Session) handle(req request) result {
	switch req.op {
	case opStart:
		if err := s.controller.StartGame(); err != nil {
			return result{err: err}
		}
		logger.Info("Partida iniciada", logger.Fields{"sessionID": s.ID})
		return s.publish()

	case opMove:
		reply, err := s.controller.ReceiveExternalMove(req.x, req.y)
		if err != nil {
			return result{snapshot: s.controller.CurrentState(), err: err}
		}
		logger.Info("Movimiento realizado", logger.Fields{
			"sessionID": s.ID,
			"x":         req.x,
			"y":         req.y,
			"replyX":    reply.X,
			"replyY":    reply.Y,
			"rule":      reply.Rule,
		})
		return s.publish()

	case opReset:
		s.controller.ResetGame()
		logger.Info("Partida reiniciada", logger.Fields{"sessionID": s.ID})
		return s.publish()

	case opState:
		return result{snapshot: s.controller.CurrentState()}

	case opAttach:
		s.Clients[req.client] = true
		s.attached.Store(int32(len(s.Clients)))
		logger.Info("Cliente conectado a la sesión", logger.Fields{
			"sessionID": s.ID,
			"clientID":  req.client.GetID(),
		})
		return result{snapshot: s.controller.CurrentState()}

	case opDetach:
		if _, ok := s.Clients[req.client]; ok {
			delete(s.Clients, req.client)
			s.attached.Store(int32(len(s.Clients)))
			logger.Info("Cliente desconectado de la sesión", logger.Fields{
				"sessionID": s.ID,
				"clientID":  req.client.GetID(),
			})
		}
		return result{snapshot: s.controller.CurrentState()}

	default:
		return result{err: fmt.Errorf("unknown session operation %s", req.op)}
	}
}

// publish envía el estado actual a todos los clientes y, si la partida ha
// terminado, también el mensaje de fin de partida.
func (s *Session) publish() result {
	snap := s.controller.CurrentState()

	stateBytes, err := json.Marshal(StateResponse(s.ID, snap))
	if err != nil {
		return result{snapshot: snap, err: err}
	}
	s.broadcast(stateBytes)

	if snap.Outcome.IsDecided() {
		overBytes, err := json.Marshal(GameOverResponse(snap))
		if err != nil {
			return result{snapshot: snap, err: err}
		}
		s.broadcast(overBytes)

		logger.Info("Juego terminado", logger.Fields{
			"sessionID": s.ID,
			"outcome":   snap.Outcome.String(),
		})
	}

	return result{snapshot: snap}
}

func (s *Session) broadcast(message []byte) {
	for client := range s.Clients {
		select {
		case client.GetSendChannel() <- message:
			// Mensaje enviado con éxito
		default:
			logger.Warn("No se pudo enviar mensaje, canal posiblemente lleno", logger.Fields{
				"clientID":  client.GetID(),
				"sessionID": s.ID,
			})
		}
	}
}

// StateResponse convierte una instantánea en el mensaje GAME_STATE
func StateResponse(sessionID string, snap game.Snapshot) models.GameStateResponse {
	resp := models.GameStateResponse{
		Type:       models.TypeGameState,
		SessionID:  sessionID,
		Board:      snap.Grid.Symbols(),
		Outcome:    snap.Outcome.String(),
		EmptyCount: snap.EmptyCount,
	}
	external, reply := snap.LastMoves()
	if external != nil {
		resp.LastMove = moveInfo(*external)
	}
	if reply != nil {
		resp.Reply = moveInfo(*reply)
	}
	return resp
}

// GameOverResponse convierte una partida terminada en el mensaje GAME_OVER
func GameOverResponse(snap game.Snapshot) models.GameOverResponse {
	resp := models.GameOverResponse{
		Type:   models.TypeGameOver,
		Board:  snap.Grid.Symbols(),
		IsDraw: snap.Outcome == game.Draw,
	}
	switch snap.Outcome {
	case game.OpponentWins:
		resp.Winner = models.WinnerOpponent
	case game.AutomatedWins:
		resp.Winner = models.WinnerAutomated
	}
	return resp
}

func moveInfo(m game.Move) *models.MoveInfo {
	return &models.MoveInfo{
		X:      m.X,
		Y:      m.Y,
		Symbol: m.Cell.Symbol(),
		Rule:   m.Rule,
	}
}
