package tcpconn

import (
	"context"
	"errors"
	"testing"

	cerrdefs "github.com/containerd/errdefs"
	"golang.org/x/sys/unix"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestErrorMessages(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want string
	}{
		{err: sysErr("bind", unix.EADDRINUSE), want: "bind: address already in use"},
		{err: &TimeoutError{Op: "poll"}, want: "poll: timeout"},
		{err: &ProtocolError{Op: "receive", Reason: "truncated"}, want: "receive: truncated"},
		{err: &ResolutionError{Op: "getaddrinfo", Host: "x", Err: errors.New("no such host")}, want: "getaddrinfo: no such host"},
	} {
		assert.Check(t, is.Error(tc.err, tc.want))
	}
}

func TestErrorClassification(t *testing.T) {
	timeout := error(&TimeoutError{Op: "poll"})
	assert.Check(t, cerrdefs.IsDeadlineExceeded(timeout))
	assert.Check(t, errors.Is(timeout, context.DeadlineExceeded))
	assert.Check(t, !cerrdefs.IsDataLoss(timeout))

	var te interface{ Timeout() bool }
	assert.Assert(t, errors.As(timeout, &te))
	assert.Check(t, te.Timeout())

	proto := error(&ProtocolError{Op: "receive", Reason: "truncated"})
	assert.Check(t, cerrdefs.IsDataLoss(proto))
	assert.Check(t, !cerrdefs.IsDeadlineExceeded(proto))
	assert.Check(t, !IsTimeout(proto))

	res := error(&ResolutionError{Op: "getaddrinfo", Err: errors.New("no such host")})
	assert.Check(t, cerrdefs.IsNotFound(res))

	sys := sysErr("connect", unix.ECONNREFUSED)
	assert.Check(t, errors.Is(sys, unix.ECONNREFUSED))
	assert.Check(t, !cerrdefs.IsNotFound(sys))
	assert.Check(t, !IsTimeout(sys))
}
