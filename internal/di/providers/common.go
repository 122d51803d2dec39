package providers

import "time"

// shutdownTimeout is the maximum time allowed for graceful shutdown of a component.
const shutdownTimeout = 30 * time.Second
