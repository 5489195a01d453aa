package providers

import "time"

// shutdownTimeout bounds graceful shutdown of the HTTP server and the
// background import queue.
const shutdownTimeout = 30 * time.Second
