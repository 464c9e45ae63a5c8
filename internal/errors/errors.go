package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"nvivas/backend/tictactoe-ai-server/internal/game"
	"nvivas/backend/tictactoe-ai-server/internal/logger"
	"nvivas/backend/tictactoe-ai-server/pkg/models"
)

// Error types
const (
	ErrorInvalidMove        = "ERROR_INVALID_MOVE"
	ErrorGameOver           = "ERROR_GAME_OVER"
	ErrorSessionNotFound    = "ERROR_SESSION_NOT_FOUND"
	ErrorInvalidMessage     = "ERROR_INVALID_MESSAGE"
	ErrorInvalidPayload     = "ERROR_INVALID_PAYLOAD"
	ErrorInternal           = "ERROR_INTERNAL"
	ErrorUnknownMessageType = "ERROR_UNKNOWN_MESSAGE_TYPE"
)

// ErrSessionNotFound is returned when a session id is unknown or expired
var ErrSessionNotFound = stderrors.New("session not found")

// Code maps an error returned by the game or the session layer to its
// error type.
func Code(err error) string {
	switch {
	case stderrors.Is(err, game.ErrGameOver):
		return ErrorGameOver
	case stderrors.Is(err, game.ErrInvalidMove):
		return ErrorInvalidMove
	case stderrors.Is(err, ErrSessionNotFound):
		return ErrorSessionNotFound
	default:
		return ErrorInternal
	}
}

// HTTPStatus maps an error type to the status code used by the HTTP API
func HTTPStatus(errorType string) int {
	switch errorType {
	case ErrorInvalidMove, ErrorGameOver:
		return http.StatusConflict
	case ErrorSessionNotFound:
		return http.StatusNotFound
	case ErrorInvalidMessage, ErrorInvalidPayload, ErrorUnknownMessageType:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// SendError sends a structured error message to the client. The send never
// blocks; the message is dropped if the client is not reading.
func SendError(channel chan []byte, errorType, message string, clientID string) {
	errorMsg := models.ErrorResponse{
		Type:    errorType,
		Message: message,
	}

	msgBytes, err := json.Marshal(errorMsg)
	if err != nil {
		logger.Error("Failed to marshal error message", logger.Fields{
			"error":     err.Error(),
			"errorType": errorType,
			"clientID":  clientID,
		})
		return
	}

	// Log the error
	logger.Warn(message, logger.Fields{
		"errorType": errorType,
		"clientID":  clientID,
	})

	// Send to client
	select {
	case channel <- msgBytes:
	default:
		logger.Warn("Could not deliver error message, channel full", logger.Fields{
			"errorType": errorType,
			"clientID":  clientID,
		})
	}
}

// FromError sends err to the client using the error type from Code
func FromError(channel chan []byte, err error, clientID string) {
	code := Code(err)
	msg := err.Error()
	if code == ErrorInternal {
		msg = "Error interno del servidor"
		logger.Error("Internal error", logger.Fields{
			"error":    err.Error(),
			"clientID": clientID,
		})
	}
	SendError(channel, code, msg, clientID)
}

// InvalidMessage creates an invalid message error
func InvalidMessage(channel chan []byte, clientID string) {
	SendError(channel, ErrorInvalidMessage, "Formato de mensaje inválido", clientID)
}

// InvalidPayload creates an invalid payload error
func InvalidPayload(channel chan []byte, context string, clientID string) {
	SendError(channel, ErrorInvalidPayload, "Datos inválidos: "+context, clientID)
}

// Internal creates an internal error
func Internal(channel chan []byte, clientID string) {
	SendError(channel, ErrorInternal, "Error interno del servidor", clientID)
}

// UnknownMessageType creates an unknown message type error
func UnknownMessageType(channel chan []byte, msgType string, clientID string) {
	SendError(channel, ErrorUnknownMessageType, "Tipo de mensaje desconocido: "+msgType, clientID)
}
