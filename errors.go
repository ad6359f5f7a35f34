package tcpconn

import (
	"context"
	"errors"

	cerrdefs "github.com/containerd/errdefs"
	"golang.org/x/sys/unix"
)

// SystemError is returned when a syscall fails. Err is normally a unix.Errno,
// so errors.Is(err, unix.ECONNREFUSED) and friends work on it.
type SystemError struct {
	Op  string
	Err error
}

func (e *SystemError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *SystemError) Unwrap() error {
	return e.Err
}

// ResolutionError is returned when the system resolver cannot map a host or
// service to an IPv4 stream address.
type ResolutionError struct {
	Op   string
	Host string
	Err  error
}

func (e *ResolutionError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func (e *ResolutionError) Is(target error) bool {
	return target == cerrdefs.ErrNotFound
}

// TimeoutError is returned when a readiness wait elapses with no activity.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return e.Op + ": timeout"
}

// Timeout reports true, matching the net.Error convention.
func (e *TimeoutError) Timeout() bool { return true }

// Is matches context.DeadlineExceeded, which is what errdefs.IsDeadlineExceeded
// looks for.
func (e *TimeoutError) Is(target error) bool {
	return target == context.DeadlineExceeded
}

// ProtocolError is returned when the peer closes the stream in the middle of
// a framed message.
type ProtocolError struct {
	Op     string
	Reason string
}

func (e *ProtocolError) Error() string {
	return e.Op + ": " + e.Reason
}

func (e *ProtocolError) Is(target error) bool {
	return target == cerrdefs.ErrDataLoss
}

func sysErr(op string, err error) error {
	return &SystemError{Op: op, Err: err}
}

func errClosed(op string) error {
	return &SystemError{Op: op, Err: unix.EBADF}
}

// IsTimeout reports whether err is, or wraps, a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
