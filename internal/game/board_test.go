package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoard(t *testing.T) {
	b := NewBoard()

	assert.Equal(t, 9, b.EmptyCount())
	for x := range 3 {
		for y := range 3 {
			assert.Equal(t, Empty, b.Get(x, y), "posición (%d,%d)", x, y)
		}
	}
}

func TestBoardPlace(t *testing.T) {
	t.Run("Movimiento válido", func(t *testing.T) {
		b := NewBoard()
		require.NoError(t, b.Place(Position{0, 2}, Opponent))

		assert.Equal(t, Opponent, b.Get(0, 2))
		assert.Equal(t, 8, b.EmptyCount())
		assert.Equal(t, b.Grid().Count(Empty), b.EmptyCount())
	})

	t.Run("Posición ya ocupada", func(t *testing.T) {
		b := NewBoard()
		require.NoError(t, b.Place(Position{1, 1}, Automated))

		err := b.Place(Position{1, 1}, Opponent)
		assert.ErrorIs(t, err, ErrInvalidMove)
		assert.Equal(t, Automated, b.Get(1, 1))
		assert.Equal(t, 8, b.EmptyCount())
	})

	t.Run("Movimiento fuera del tablero", func(t *testing.T) {
		b := NewBoard()
		for _, p := range []Position{{-1, 0}, {0, -1}, {3, 0}, {0, 3}} {
			err := b.Place(p, Opponent)
			assert.ErrorIs(t, err, ErrOutOfBounds)
			assert.ErrorIs(t, err, ErrInvalidMove)
		}
		assert.Equal(t, 9, b.EmptyCount())
	})

	t.Run("Marca vacía", func(t *testing.T) {
		b := NewBoard()
		assert.ErrorIs(t, b.Place(Position{0, 0}, Empty), ErrInvalidMove)
		assert.Equal(t, 9, b.EmptyCount())
	})
}

func TestBoardFillAndReset(t *testing.T) {
	b := NewBoard()
	marks := []Cell{Opponent, Automated}

	n := 0
	for x := range 3 {
		for y := range 3 {
			require.NoError(t, b.Place(Position{x, y}, marks[n%2]))
			n++
			assert.Equal(t, 9-n, b.EmptyCount())
			assert.Equal(t, b.Grid().Count(Empty), b.EmptyCount())
		}
	}
	assert.Equal(t, 0, b.EmptyCount())

	b.Reset()
	assert.Equal(t, 9, b.EmptyCount())
	assert.Equal(t, Grid{}, b.Grid())
}

func TestGridIsACopy(t *testing.T) {
	b := NewBoard()
	g := b.Grid()
	g[0][0] = Opponent

	assert.Equal(t, Empty, b.Get(0, 0))
	assert.Equal(t, 9, b.EmptyCount())
}

func TestGridRendering(t *testing.T) {
	g := grid("X.O", ".O.", "..X")

	assert.Equal(t, [][]string{
		{"X", "", "O"},
		{"", "O", ""},
		{"", "", "X"},
	}, g.Symbols())
	assert.Equal(t, "X| |O\n-+-+-\n |O| \n-+-+-\n | |X", g.String())
}
