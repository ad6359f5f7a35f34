package tcpconn

import (
	"time"

	"github.com/containerd/log"
)

const (
	// DefaultIOTimeout bounds the readiness gate in front of Send and the
	// receive family.
	DefaultIOTimeout = 5000 * time.Millisecond

	// ChunkSize is the size of the buffer handed to a single recv call.
	ChunkSize = 128
)

// Terminator marks the end of a message for ReceiveUntilTerminator.
var Terminator = []byte("\r\n\r\n")

type config struct {
	ioTimeout time.Duration
	log       *log.Entry
}

// Option configures a Connection.
type Option func(*config)

// WithIOTimeout overrides DefaultIOTimeout. A negative value waits forever.
func WithIOTimeout(d time.Duration) Option {
	return func(c *config) {
		c.ioTimeout = d
	}
}

// WithLogger sets the entry lifecycle events are logged to. The connection
// adds its own "fd" field.
func WithLogger(l *log.Entry) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

func newConfig(opts []Option) config {
	cfg := config{
		ioTimeout: DefaultIOTimeout,
		log:       log.L,
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}
