package tcpconn

import (
	"net/netip"
	"strconv"
	"time"

	"github.com/containerd/log"
	"golang.org/x/sys/unix"
)

// Connection owns one IPv4 TCP socket descriptor. It is not safe for
// concurrent use; confine it to one goroutine or serialize access.
type Connection struct {
	// socket file descriptor, -1 when unusable or closed
	fd int
	// poll interest for the next readiness wait, rewritten before every poll
	events int16
	// bytes read past the end of the last framed message
	pending []byte

	sys syscalls
	cfg config
	log *log.Entry
}

// Open creates a fresh TCP stream socket for the client or listener role.
// https://man7.org/linux/man-pages/man2/socket.2.html
func Open(opts ...Option) (*Connection, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, sysErr("socket", err)
	}

	c := newConnection(fd, newConfig(opts))
	c.settings()
	c.log.Debug("socket opened")
	return c, nil
}

// FromHandle wraps an already valid descriptor, taking ownership of it.
// A negative fd yields an unusable Connection without an error: every
// operation on it fails with EBADF.
func FromHandle(fd int, opts ...Option) *Connection {
	if fd < 0 {
		return newConnection(-1, newConfig(opts))
	}

	c := newConnection(fd, newConfig(opts))
	c.settings()
	return c
}

func newConnection(fd int, cfg config) *Connection {
	return &Connection{
		fd:  fd,
		sys: osCalls{},
		cfg: cfg,
		log: cfg.log.WithField("fd", fd),
	}
}

// settings applies the defaults every socket carries: SO_REUSEADDR, so a
// port left in TIME-WAIT can be bound again, and a readable|writable
// poll interest.
func (c *Connection) settings() {
	c.events = unix.POLLIN | unix.POLLOUT
	if err := unix.SetsockoptInt(c.fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		c.log.WithError(err).Debug("setsockopt SO_REUSEADDR failed")
	}
}

// Fd returns the owned descriptor, or -1.
func (c *Connection) Fd() int {
	return c.fd
}

// Close releases the descriptor. Closing twice reports EBADF.
func (c *Connection) Close() error {
	if c.fd < 0 {
		return errClosed("close")
	}

	fd := c.fd
	c.fd = -1
	c.pending = nil
	if err := unix.Close(fd); err != nil {
		return sysErr("close", err)
	}
	c.log.Debug("socket closed")
	return nil
}

// Port returns the locally bound port.
func (c *Connection) Port() (int, error) {
	if c.fd < 0 {
		return 0, errClosed("getsockname")
	}

	sa, err := unix.Getsockname(c.fd)
	if err != nil {
		return 0, sysErr("getsockname", err)
	}
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return a.Port, nil
	case *unix.SockaddrInet6:
		return a.Port, nil
	default:
		return 0, sysErr("getsockname", unix.EAFNOSUPPORT)
	}
}

// Bind binds the socket to the wildcard address on the given port, which may
// be numeric ("8080") or a service name ("http").
func (c *Connection) Bind(service string) error {
	if c.fd < 0 {
		return errClosed("bind")
	}

	sa, err := resolvePassive(service)
	if err != nil {
		return err
	}
	if err := unix.Bind(c.fd, sa); err != nil {
		return sysErr("bind", err)
	}
	c.log.WithField("port", sa.Port).Debug("socket bound")
	return nil
}

// BindPort is Bind with a numeric port. Port 0 lets the kernel choose.
func (c *Connection) BindPort(port int) error {
	return c.Bind(strconv.Itoa(port))
}

// Listen marks the socket as passive with the given backlog.
func (c *Connection) Listen(backlog int) error {
	if c.fd < 0 {
		return errClosed("listen")
	}

	if err := unix.Listen(c.fd, backlog); err != nil {
		return sysErr("listen", err)
	}
	c.log.WithField("backlog", backlog).Debug("socket listening")
	return nil
}

// Accept blocks until a peer connects and returns a new Connection that
// exclusively owns the accepted descriptor. The new Connection inherits
// this one's options.
func (c *Connection) Accept() (*Connection, error) {
	if c.fd < 0 {
		return nil, errClosed("accept")
	}

	nfd, sa, err := unix.Accept4(c.fd, unix.SOCK_CLOEXEC)
	if err != nil {
		return nil, sysErr("accept", err)
	}

	peer := newConnection(nfd, c.cfg)
	peer.settings()
	peer.log.WithField("peer", sockaddrString(sa)).Debug("connection accepted")
	return peer, nil
}

// AcceptTimeout waits up to timeout for a pending connection, then accepts
// it.
func (c *Connection) AcceptTimeout(timeout time.Duration) (*Connection, error) {
	c.events = unix.POLLIN | unix.POLLOUT
	if _, err := c.CheckPoll(timeout); err != nil {
		return nil, err
	}
	return c.Accept()
}

func sockaddrString(sa unix.Sockaddr) string {
	if a, ok := sa.(*unix.SockaddrInet4); ok {
		return netip.AddrPortFrom(netip.AddrFrom4(a.Addr), uint16(a.Port)).String()
	}
	return ""
}
