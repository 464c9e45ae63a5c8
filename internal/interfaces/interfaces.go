package interfaces

// Hub defines the interface for hub operations needed by clients
type Hub interface {
	// UnregisterClient removes a client from the hub and detaches it from
	// its session
	UnregisterClient(client Client)
}

// Client defines the interface for client operations needed by the hub and
// the sessions
type Client interface {
	// GetID returns the client's unique identifier
	GetID() string

	// GetSendChannel returns the client's message sending channel
	GetSendChannel() chan []byte
}
