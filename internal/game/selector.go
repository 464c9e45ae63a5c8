package game

// Rule es una regla de selección de jugada. Pick devuelve false si la regla
// no aplica al tablero.
type Rule struct {
	Name string
	Pick func(g Grid, self Cell) (Position, bool)
}

// Nombres de las reglas, en orden de prioridad
const (
	RuleAttack              = "attack"
	RuleDefend              = "defend"
	RuleCenter              = "center"
	RuleOppositeCornersMain = "opposite-corners-main"
	RuleOppositeCornersAnti = "opposite-corners-anti"
	RuleAdjacentEdges       = "adjacent-edges"
	RuleEdgeOppositeCorner  = "edge-opposite-corner"
	RuleFirstEmpty          = "first-empty"
)

var (
	center = Position{1, 1}

	// Pares de bordes adyacentes y la esquina que los separa
	adjacentEdges = []struct {
		a, b, corner Position
	}{
		{Position{0, 1}, Position{1, 0}, Position{0, 0}},
		{Position{0, 1}, Position{1, 2}, Position{0, 2}},
		{Position{2, 1}, Position{1, 0}, Position{2, 0}},
		{Position{2, 1}, Position{1, 2}, Position{2, 2}},
	}

	// Bordes cuya ocupación por el rival lleva a la esquina opuesta
	edgeCorners = []struct {
		a, b, corner Position
	}{
		{Position{0, 1}, Position{1, 0}, Position{2, 2}},
		{Position{0, 1}, Position{1, 2}, Position{2, 0}},
		{Position{2, 1}, Position{1, 0}, Position{0, 2}},
		{Position{2, 1}, Position{1, 2}, Position{0, 0}},
	}

	// Orden fijo de la última regla: esquinas y luego bordes
	scanOrder = []Position{
		{0, 0}, {0, 2}, {2, 0}, {2, 2},
		{0, 1}, {1, 0}, {1, 2}, {2, 1},
	}
)

// DefaultRules devuelve la cadena de reglas del oponente automático
func DefaultRules() []Rule {
	return []Rule{
		{RuleAttack, func(g Grid, self Cell) (Position, bool) {
			return FindCompletable(g, self)
		}},
		{RuleDefend, func(g Grid, self Cell) (Position, bool) {
			return FindCompletable(g, self.Other())
		}},
		{RuleCenter, func(g Grid, _ Cell) (Position, bool) {
			return firstEmpty(g, center)
		}},
		{RuleOppositeCornersMain, func(g Grid, self Cell) (Position, bool) {
			if !holds(g, self.Other(), Position{0, 0}, Position{2, 2}) {
				return Position{}, false
			}
			return firstEmpty(g, Position{0, 2}, Position{2, 0})
		}},
		{RuleOppositeCornersAnti, func(g Grid, self Cell) (Position, bool) {
			if !holds(g, self.Other(), Position{0, 2}, Position{2, 0}) {
				return Position{}, false
			}
			return firstEmpty(g, Position{0, 0}, Position{2, 2})
		}},
		{RuleAdjacentEdges, func(g Grid, self Cell) (Position, bool) {
			for _, e := range adjacentEdges {
				if holds(g, self.Other(), e.a, e.b) && g.At(e.corner) == Empty {
					return e.corner, true
				}
			}
			return Position{}, false
		}},
		{RuleEdgeOppositeCorner, func(g Grid, self Cell) (Position, bool) {
			rival := self.Other()
			for _, e := range edgeCorners {
				if (g.At(e.a) == rival || g.At(e.b) == rival) && g.At(e.corner) == Empty {
					return e.corner, true
				}
			}
			return Position{}, false
		}},
		{RuleFirstEmpty, func(g Grid, _ Cell) (Position, bool) {
			return firstEmpty(g, scanOrder...)
		}},
	}
}

func holds(g Grid, side Cell, ps ...Position) bool {
	for _, p := range ps {
		if g.At(p) != side {
			return false
		}
	}
	return true
}

func firstEmpty(g Grid, ps ...Position) (Position, bool) {
	for _, p := range ps {
		if g.At(p) == Empty {
			return p, true
		}
	}
	return Position{}, false
}

// Selector elige la jugada del oponente automático aplicando las reglas en
// orden y quedándose con la primera que aplica. Es determinista.
type Selector struct {
	self  Cell
	rules []Rule
}

// NewSelector crea un selector que juega con la marca self
func NewSelector(self Cell) *Selector {
	return &Selector{self: self, rules: DefaultRules()}
}

// Side devuelve la marca con la que juega el selector
func (s *Selector) Side() Cell {
	return s.self
}

// Select devuelve la casilla elegida y el nombre de la regla que la eligió.
// Devuelve false sólo si el tablero está lleno.
func (s *Selector) Select(g Grid) (Position, string, bool) {
	for _, r := range s.rules {
		if p, ok := r.Pick(g, s.self); ok {
			return p, r.Name, true
		}
	}
	return Position{}, "", false
}
