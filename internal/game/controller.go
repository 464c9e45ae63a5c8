package game

import (
	"fmt"

	"nvivas/backend/tictactoe-ai-server/internal/logger"
)

// State es el estado de la máquina del controlador
type State uint8

const (
	Playing State = iota // Partida en curso
	Decided              // Partida terminada, estado final
)

// Move es una jugada aplicada al tablero
type Move struct {
	Position
	Cell Cell
	Rule string // Regla que eligió la jugada, vacío para jugadas externas
}

// Snapshot es la vista de solo lectura que se entrega a los renderizadores
type Snapshot struct {
	Grid       Grid
	Outcome    Outcome
	EmptyCount int
	Moves      []Move // Jugadas de la partida actual, en orden
}

// LastMoves devuelve la última jugada externa y la respuesta automática
// que la siguió, si existen.
func (s Snapshot) LastMoves() (external, reply *Move) {
	n := len(s.Moves)
	if n >= 2 && s.Moves[n-2].Cell == Opponent && s.Moves[n-1].Cell == Automated {
		return &s.Moves[n-2], &s.Moves[n-1]
	}
	if n >= 1 && s.Moves[n-1].Cell == Opponent {
		return &s.Moves[n-1], nil
	}
	return nil, nil
}

// Controller coordina una partida: el oponente automático abre, el jugador
// externo responde y cada jugada externa recibe una respuesta inmediata.
// No es seguro para uso concurrente.
type Controller struct {
	board    *Board
	selector *Selector
	state    State
	outcome  Outcome
	moves    []Move
}

// NewController crea un controlador con el tablero vacío. Hay que llamar a
// StartGame antes de recibir jugadas.
func NewController() *Controller {
	return &Controller{
		board:    NewBoard(),
		selector: NewSelector(Automated),
	}
}

// StartGame vacía el tablero y hace la jugada de apertura automática
func (c *Controller) StartGame() error {
	c.clear()
	logger.Debug("Nueva partida", nil)

	_, err := c.playAutomated()
	return err
}

// ResetGame vacía el tablero y vuelve a dejar la partida en curso. No hay
// jugada de apertura: la siguiente jugada externa recibe respuesta como
// siempre.
func (c *Controller) ResetGame() {
	logger.Debug("Reiniciando partida", logger.Fields{
		"outcome": c.outcome.String(),
	})
	c.clear()
}

func (c *Controller) clear() {
	c.board.Reset()
	c.state = Playing
	c.outcome = InProgress
	c.moves = c.moves[:0]
}

// ReceiveExternalMove aplica la jugada del jugador externo en (x, y), deja
// responder al oponente automático y evalúa el final de la partida.
// Devuelve la respuesta automática.
//
// La respuesta se juega aunque la jugada externa ya haya completado una
// línea; el ganador se calcula después con el orden de Winner.
func (c *Controller) ReceiveExternalMove(x, y int) (Move, error) {
	if c.state == Decided {
		return Move{}, ErrGameOver
	}

	pos := Position{X: x, Y: y}
	if err := c.place(Move{Position: pos, Cell: Opponent}); err != nil {
		return Move{}, err
	}

	var reply Move
	if c.board.EmptyCount() > 0 {
		var err error
		if reply, err = c.playAutomated(); err != nil {
			return Move{}, err
		}
	}

	if winner, ok := Winner(c.board.Grid()); ok {
		c.decide(outcomeFor(winner))
	} else if c.board.EmptyCount() == 0 {
		c.decide(Draw)
	}

	return reply, nil
}

// CurrentState devuelve una copia del tablero y el resultado actual
func (c *Controller) CurrentState() Snapshot {
	moves := make([]Move, len(c.moves))
	copy(moves, c.moves)
	return Snapshot{
		Grid:       c.board.Grid(),
		Outcome:    c.outcome,
		EmptyCount: c.board.EmptyCount(),
		Moves:      moves,
	}
}

// State devuelve el estado de la máquina
func (c *Controller) State() State {
	return c.state
}

func (c *Controller) playAutomated() (Move, error) {
	pos, rule, ok := c.selector.Select(c.board.Grid())
	if !ok {
		return Move{}, fmt.Errorf("%w: no empty cell left for %s", ErrInvalidMove, c.selector.Side())
	}

	m := Move{Position: pos, Cell: c.selector.Side(), Rule: rule}
	if err := c.place(m); err != nil {
		return Move{}, err
	}
	return m, nil
}

func (c *Controller) place(m Move) error {
	if err := c.board.Place(m.Position, m.Cell); err != nil {
		return err
	}
	c.moves = append(c.moves, m)

	fields := logger.Fields{
		"x":     m.X,
		"y":     m.Y,
		"cell":  m.Cell.String(),
		"empty": c.board.EmptyCount(),
	}
	if m.Rule != "" {
		fields["rule"] = m.Rule
	}
	logger.Debug("Marca colocada", fields)
	return nil
}

func (c *Controller) decide(o Outcome) {
	c.state = Decided
	c.outcome = o
	logger.Debug("Partida terminada", logger.Fields{
		"outcome": o.String(),
	})
}
