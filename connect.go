package tcpconn

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

// Connect resolves host:service and performs a blocking connect.
// https://man7.org/linux/man-pages/man2/connect.2.html
func (c *Connection) Connect(host, service string) error {
	if c.fd < 0 {
		return errClosed("connect")
	}

	sa, err := resolveActive(host, service)
	if err != nil {
		return err
	}
	if err := unix.Connect(c.fd, sa); err != nil {
		return sysErr("connect", err)
	}
	return nil
}

// ConnectTimeout connects like Connect but gives up after timeout. The
// socket is switched to non-blocking mode for the duration of the call and
// its previous mode is restored on every return path. Only an in-progress
// connect is waited on: a resolution failure or an error reported by the
// initial connect call, such as ECONNREFUSED, is returned immediately.
func (c *Connection) ConnectTimeout(host, service string, timeout time.Duration) error {
	if c.fd < 0 {
		return errClosed("connect")
	}

	restore, err := c.nonblocking()
	if err != nil {
		return err
	}
	defer restore()

	state, err := c.initiate(host, service)
	switch state {
	case connectDone:
		return nil
	case connectFailed:
		return err
	}

	// writability is the completion signal of a non-blocking connect
	if _, err := c.CheckWritable(timeout); err != nil {
		return err
	}

	soErr, err := unix.GetsockoptInt(c.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return sysErr("getsockopt", err)
	}
	if soErr != 0 {
		return sysErr("connect", unix.Errno(soErr))
	}
	return nil
}

type connectState int

const (
	connectDone connectState = iota
	// the handshake is in flight; the readiness wait decides the outcome
	connectPending
	connectFailed
)

// initiate starts a connect on a non-blocking socket. EINPROGRESS, which a
// non-blocking connect reports as an error, is a pending state here.
func (c *Connection) initiate(host, service string) (connectState, error) {
	sa, err := resolveActive(host, service)
	if err != nil {
		return connectFailed, err
	}

	err = unix.Connect(c.fd, sa)
	switch {
	case err == nil:
		return connectDone, nil
	case errors.Is(err, unix.EINPROGRESS), errors.Is(err, unix.EINTR), errors.Is(err, unix.EALREADY):
		c.log.WithError(err).Debug("connect initiated")
		return connectPending, nil
	default:
		return connectFailed, sysErr("connect", err)
	}
}

// nonblocking sets O_NONBLOCK and returns a func that puts the previous file
// status flags back.
func (c *Connection) nonblocking() (func(), error) {
	flags, err := unix.FcntlInt(uintptr(c.fd), unix.F_GETFL, 0)
	if err != nil {
		return nil, sysErr("fcntl", err)
	}
	if _, err := unix.FcntlInt(uintptr(c.fd), unix.F_SETFL, flags|unix.O_NONBLOCK); err != nil {
		return nil, sysErr("fcntl", err)
	}

	return func() {
		if _, err := unix.FcntlInt(uintptr(c.fd), unix.F_SETFL, flags); err != nil {
			c.log.WithError(err).Warn("failed to restore socket flags")
		}
	}, nil
}
