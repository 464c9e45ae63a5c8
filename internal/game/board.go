package game

import (
	"errors"
	"fmt"
	"strings"
)

// Cell representa el contenido de una casilla del tablero
type Cell uint8

const (
	Empty     Cell = iota // Casilla libre
	Opponent              // Marca del jugador externo
	Automated             // Marca del oponente automático
)

// String devuelve el nombre de la marca, usado en logs
func (c Cell) String() string {
	switch c {
	case Opponent:
		return "Opponent"
	case Automated:
		return "Automated"
	default:
		return "Empty"
	}
}

// Symbol devuelve el símbolo que se envía a los clientes
func (c Cell) Symbol() string {
	switch c {
	case Opponent:
		return "X"
	case Automated:
		return "O"
	default:
		return ""
	}
}

// Other devuelve el bando contrario
func (c Cell) Other() Cell {
	switch c {
	case Opponent:
		return Automated
	case Automated:
		return Opponent
	default:
		return Empty
	}
}

// Position identifica una casilla; X es el primer índice (fila) e Y el segundo
type Position struct {
	X, Y int
}

// IsValid indica si la posición está dentro del tablero
func (p Position) IsValid() bool {
	return p.X >= 0 && p.X < 3 && p.Y >= 0 && p.Y < 3
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Grid es una copia de solo lectura del tablero de 3x3
type Grid [3][3]Cell

// At devuelve la marca en la posición dada, Empty si está fuera del tablero
func (g Grid) At(p Position) Cell {
	if !p.IsValid() {
		return Empty
	}
	return g[p.X][p.Y]
}

// Count cuenta las casillas que contienen la marca dada
func (g Grid) Count(c Cell) int {
	n := 0
	for i := range 3 {
		for j := range 3 {
			if g[i][j] == c {
				n++
			}
		}
	}
	return n
}

// Symbols convierte el tablero a filas de símbolos para JSON
func (g Grid) Symbols() [][]string {
	rows := make([][]string, 3)
	for i := range 3 {
		rows[i] = []string{g[i][0].Symbol(), g[i][1].Symbol(), g[i][2].Symbol()}
	}
	return rows
}

func (g Grid) String() string {
	var s strings.Builder
	for i := range 3 {
		if i > 0 {
			s.WriteString("\n-+-+-\n")
		}
		for j := range 3 {
			if j > 0 {
				s.WriteByte('|')
			}
			sym := g[i][j].Symbol()
			if sym == "" {
				sym = " "
			}
			s.WriteString(sym)
		}
	}
	return s.String()
}

var (
	// ErrInvalidMove se devuelve al intentar ocupar una casilla no vacía.
	// El resto de errores de movimiento lo envuelven.
	ErrInvalidMove = errors.New("invalid move")
	ErrOutOfBounds = fmt.Errorf("%w: position out of bounds", ErrInvalidMove)
	ErrGameOver    = fmt.Errorf("%w: game is already decided", ErrInvalidMove)
)

// Board es el tablero mutable. Place es la única forma de modificarlo.
type Board struct {
	cells      Grid
	emptyCount int // Casillas vacías restantes, 0 indica tablero lleno
}

// NewBoard crea un tablero vacío
func NewBoard() *Board {
	return &Board{emptyCount: 9}
}

// Get devuelve la marca en (x, y)
func (b *Board) Get(x, y int) Cell {
	return b.cells.At(Position{X: x, Y: y})
}

// Place coloca una marca en una casilla vacía
func (b *Board) Place(p Position, c Cell) error {
	if !p.IsValid() {
		return fmt.Errorf("%w: %s", ErrOutOfBounds, p)
	}
	if c == Empty {
		return fmt.Errorf("%w: cannot place an empty mark at %s", ErrInvalidMove, p)
	}
	if cur := b.cells[p.X][p.Y]; cur != Empty {
		return fmt.Errorf("%w: %s is occupied by %s", ErrInvalidMove, p, cur)
	}

	b.cells[p.X][p.Y] = c
	b.emptyCount--
	return nil
}

// Reset vacía el tablero
func (b *Board) Reset() {
	b.cells = Grid{}
	b.emptyCount = 9
}

// EmptyCount devuelve el número de casillas vacías
func (b *Board) EmptyCount() int {
	return b.emptyCount
}

// Grid devuelve una copia del tablero
func (b *Board) Grid() Grid {
	return b.cells
}
