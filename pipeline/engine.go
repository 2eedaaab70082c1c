package pipeline

// Engine runs a built pipeline. Bus messages are delivered to the Handler
// the engine was built with until Stop returns.
type Engine interface {
	Play() error
	// Stop sets the pipeline to its null state and stops bus monitoring.
	// Calling Stop more than once is harmless.
	Stop() error
}

// Factory builds an engine for a descriptor, wiring its callbacks to h.
type Factory func(d Descriptor, h Handler) (Engine, error)
