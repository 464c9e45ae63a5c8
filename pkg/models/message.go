package models

import (
	"encoding/json"
)

// Message types exchanged over the WebSocket
const (
	TypeMakeMove  = "MAKE_MOVE"
	TypeStartGame = "START_GAME"
	TypeResetGame = "RESET_GAME"
	TypeGetState  = "GET_STATE"

	TypeSessionStarted = "SESSION_STARTED"
	TypeSessionClosed  = "SESSION_CLOSED"
	TypeGameState      = "GAME_STATE"
	TypeGameOver       = "GAME_OVER"
)

// Winner values in GameOverResponse
const (
	WinnerOpponent  = "OPPONENT"
	WinnerAutomated = "AUTOMATED"
)

// BaseMessage is the most basic message structure
type BaseMessage struct {
	Type string `json:"type"`
}

// Envelope is used for initial message deserialization
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// MovePayload contains the coordinates of a move. X is the row, Y the column.
type MovePayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// MakeMovePayload contains data for making a move
type MakeMovePayload struct {
	Move MovePayload `json:"move"`
}

// MoveInfo describes a move that was applied to the board
type MoveInfo struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Symbol string `json:"symbol"`
	Rule   string `json:"rule,omitempty"` // rule that picked an automated move
}

// SessionStartedResponse is sent when a connection is bound to a session
type SessionStartedResponse struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Resumed   bool   `json:"resumed"`
}

// GameStateResponse carries a full snapshot of the game
type GameStateResponse struct {
	Type       string     `json:"type"`
	SessionID  string     `json:"sessionId"`
	Board      [][]string `json:"board"`
	Outcome    string     `json:"outcome"`
	EmptyCount int        `json:"emptyCount"`
	LastMove   *MoveInfo  `json:"lastMove,omitempty"` // last external move
	Reply      *MoveInfo  `json:"reply,omitempty"`    // automated answer to LastMove
}

// GameOverResponse is sent when the game ends
type GameOverResponse struct {
	Type   string     `json:"type"`
	Board  [][]string `json:"board"`
	Winner string     `json:"winner"` // OPPONENT, AUTOMATED or empty for draw
	IsDraw bool       `json:"isDraw"`
}

// ErrorResponse is sent when an error occurs
type ErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Clients  int    `json:"clients"`
}
