package game

// Winner busca una línea de tres marcas iguales. Recorre fila 0, columna 0,
// fila 1, columna 1, fila 2, columna 2, diagonal principal y diagonal
// secundaria, y devuelve la primera encontrada.
func Winner(g Grid) (Cell, bool) {
	// Comprobar filas y columnas intercaladas
	for i := range 3 {
		if g[i][0] != Empty && g[i][0] == g[i][1] && g[i][1] == g[i][2] {
			return g[i][0], true
		}
		if g[0][i] != Empty && g[0][i] == g[1][i] && g[1][i] == g[2][i] {
			return g[0][i], true
		}
	}

	// Comprobar diagonal principal
	if g[1][1] != Empty && g[0][0] == g[1][1] && g[1][1] == g[2][2] {
		return g[1][1], true
	}

	// Comprobar diagonal secundaria
	if g[1][1] != Empty && g[0][2] == g[1][1] && g[1][1] == g[2][0] {
		return g[1][1], true
	}

	return Empty, false
}

// completion describe dos casillas que deben ser de side y la que las completa
type completion struct {
	a, b, empty Position
}

// completionOrder es el orden de búsqueda de FindCompletable. Cuando hay
// varias líneas completables gana la primera de esta lista.
var completionOrder = func() []completion {
	order := make([]completion, 0, 22)
	for i := range 3 {
		// Fila i
		order = append(order,
			completion{Position{i, 0}, Position{i, 1}, Position{i, 2}},
			completion{Position{i, 0}, Position{i, 2}, Position{i, 1}},
			completion{Position{i, 1}, Position{i, 2}, Position{i, 0}},
		)
		// Columna i
		order = append(order,
			completion{Position{0, i}, Position{1, i}, Position{2, i}},
			completion{Position{0, i}, Position{2, i}, Position{1, i}},
			completion{Position{1, i}, Position{2, i}, Position{0, i}},
		)
	}
	// Diagonales; el centro nunca es la casilla que falta
	return append(order,
		completion{Position{0, 0}, Position{1, 1}, Position{2, 2}},
		completion{Position{1, 1}, Position{2, 2}, Position{0, 0}},
		completion{Position{0, 2}, Position{1, 1}, Position{2, 0}},
		completion{Position{1, 1}, Position{2, 0}, Position{0, 2}},
	)
}()

// FindCompletable devuelve la primera casilla vacía que completaría tres en
// línea para side.
func FindCompletable(g Grid, side Cell) (Position, bool) {
	if side == Empty {
		return Position{}, false
	}
	for _, c := range completionOrder {
		if g.At(c.a) == side && g.At(c.b) == side && g.At(c.empty) == Empty {
			return c.empty, true
		}
	}
	return Position{}, false
}

// Outcome es el resultado de una partida, derivado del tablero
type Outcome uint8

const (
	InProgress Outcome = iota
	OpponentWins
	AutomatedWins
	Draw
)

func (o Outcome) String() string {
	switch o {
	case OpponentWins:
		return "OPPONENT_WINS"
	case AutomatedWins:
		return "AUTOMATED_WINS"
	case Draw:
		return "DRAW"
	default:
		return "IN_PROGRESS"
	}
}

// IsDecided indica si la partida ha terminado
func (o Outcome) IsDecided() bool {
	return o != InProgress
}

// Winner devuelve el bando ganador, Empty si no lo hay
func (o Outcome) Winner() Cell {
	switch o {
	case OpponentWins:
		return Opponent
	case AutomatedWins:
		return Automated
	default:
		return Empty
	}
}

func outcomeFor(winner Cell) Outcome {
	switch winner {
	case Opponent:
		return OpponentWins
	case Automated:
		return AutomatedWins
	default:
		return InProgress
	}
}

// OutcomeOf calcula el resultado a partir de una copia del tablero
func OutcomeOf(g Grid) Outcome {
	if w, ok := Winner(g); ok {
		return outcomeFor(w)
	}
	if g.Count(Empty) == 0 {
		return Draw
	}
	return InProgress
}
