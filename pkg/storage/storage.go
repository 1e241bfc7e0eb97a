package storage

// Storage defines the root interface for the coordinator's persisted state.
// It composes all available storage operations. Components should depend on
// the more granular interfaces (PendingStore, WebSocketManager) instead of
// this one.
type Storage interface {
	PendingStore
	WebSocketManager
}
