package tcpconn

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

// CheckReadable waits until data (or EOF, or a pending connection) can be
// read without blocking.
func (c *Connection) CheckReadable(timeout time.Duration) (int, error) {
	c.events = unix.POLLIN
	return c.CheckPoll(timeout)
}

// CheckWritable waits until a send would not block. On a socket with a
// connect in flight it also signals that the handshake has finished.
func (c *Connection) CheckWritable(timeout time.Duration) (int, error) {
	c.events = unix.POLLOUT
	return c.CheckPoll(timeout)
}

// CheckPoll waits for the currently configured interest set. It returns the
// number of ready descriptors, a TimeoutError when timeout elapses first, or
// a SystemError. A negative timeout waits forever.
// https://man7.org/linux/man-pages/man2/poll.2.html
func (c *Connection) CheckPoll(timeout time.Duration) (int, error) {
	if c.fd < 0 {
		return 0, errClosed("poll")
	}

	fds := []unix.PollFd{{Fd: int32(c.fd), Events: c.events}}

	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}

	wait := timeout
	for {
		n, err := c.sys.poll(fds, pollMillis(wait))
		if err != nil {
			// a signal interrupted the wait, go back to sleep for whatever is left
			if errors.Is(err, unix.EINTR) {
				if !deadline.IsZero() {
					if wait = time.Until(deadline); wait < 0 {
						wait = 0
					}
				}
				continue
			}
			return 0, sysErr("poll", err)
		}

		if n == 0 {
			return 0, &TimeoutError{Op: "poll"}
		}
		return n, nil
	}
}

func pollMillis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	ms := d.Milliseconds()
	if ms == 0 && d > 0 {
		ms = 1
	}
	return int(ms)
}
