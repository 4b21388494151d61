package ports

// Frontend is a long-running listener started and stopped by the server binary
type Frontend interface {
	// Start begins serving in the background
	Start() error

	// Stop stops serving
	Stop() error
}

// Stopper releases resources held by a collaborator
type Stopper interface {
	Stop()
}
