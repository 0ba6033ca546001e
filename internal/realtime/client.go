package realtime

// Client is the transport handle of one connection.
// We keep it minimal here; the actual network conn is managed in the ws handler.
type Client interface {
	// Send queues a frame without blocking. It returns false when the frame
	// was dropped because the client is closed or too slow.
	Send(message []byte) bool
	Close()
}
