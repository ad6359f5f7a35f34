package tcpconn

import (
	"golang.org/x/sys/unix"
)

// syscalls is the seam between the I/O loops and the kernel. Tests swap it
// to drive partial transfers and readiness outcomes deterministically.
type syscalls interface {
	poll(fds []unix.PollFd, timeoutMs int) (int, error)
	send(fd int, p []byte) (int, error)
	recv(fd int, p []byte) (int, error)
}

type osCalls struct{}

// https://man7.org/linux/man-pages/man2/poll.2.html
func (osCalls) poll(fds []unix.PollFd, timeoutMs int) (int, error) {
	return unix.Poll(fds, timeoutMs)
}

// MSG_NOSIGNAL turns a broken pipe into EPIPE instead of raising SIGPIPE.
func (osCalls) send(fd int, p []byte) (int, error) {
	return unix.SendmsgN(fd, p, nil, nil, unix.MSG_NOSIGNAL)
}

func (osCalls) recv(fd int, p []byte) (int, error) {
	n, _, err := unix.Recvfrom(fd, p, 0)
	return n, err
}
