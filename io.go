package tcpconn

import (
	"bytes"
	"errors"

	"golang.org/x/sys/unix"
)

// Send writes all of data. A single send may take only part of the buffer,
// so the remainder is re-issued until the whole slice is on the wire.
// A broken pipe surfaces as a SystemError wrapping EPIPE.
func (c *Connection) Send(data []byte) error {
	if c.fd < 0 {
		return errClosed("send")
	}
	if _, err := c.CheckWritable(c.cfg.ioTimeout); err != nil {
		return err
	}

	for sent := 0; sent < len(data); {
		n, err := c.sys.send(c.fd, data[sent:])
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return sysErr("send", err)
		}
		sent += n
	}
	return nil
}

// ReceiveRaw performs one gated receive of at most ChunkSize bytes. An empty
// result means the peer closed its side.
func (c *Connection) ReceiveRaw() ([]byte, error) {
	return c.receiveChunk()
}

// ReceiveUntilTerminator reads until the stream contains Terminator and
// returns everything before it. Bytes that arrived after the terminator are
// kept for the next receive. If the peer closes first a ProtocolError is
// returned.
func (c *Connection) ReceiveUntilTerminator() ([]byte, error) {
	var acc []byte
	for {
		chunk, err := c.receiveChunk()
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			return nil, &ProtocolError{Op: "receive", Reason: "connection closed before message terminator"}
		}

		// only the tail of what we already had can start a new match
		from := max(len(acc)-len(Terminator)+1, 0)
		acc = append(acc, chunk...)
		if i := bytes.Index(acc[from:], Terminator); i >= 0 {
			end := from + i
			c.stash(acc[end+len(Terminator):])
			return acc[:end:end], nil
		}
	}
}

// ReceiveExact reads size bytes. If the peer closes early the bytes obtained
// so far are returned without an error; callers check the length.
func (c *Connection) ReceiveExact(size int) ([]byte, error) {
	if size <= 0 {
		return []byte{}, nil
	}

	acc := make([]byte, 0, size)
	for len(acc) < size {
		chunk, err := c.receiveChunk()
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			break
		}
		acc = append(acc, chunk...)
	}

	if len(acc) > size {
		c.stash(acc[size:])
		acc = acc[:size:size]
	}
	return acc, nil
}

// receiveChunk returns stashed bytes if there are any, otherwise it waits
// for readability and issues exactly one recv.
// https://man7.org/linux/man-pages/man2/recv.2.html
func (c *Connection) receiveChunk() ([]byte, error) {
	if len(c.pending) > 0 {
		b := c.pending
		c.pending = nil
		return b, nil
	}
	if c.fd < 0 {
		return nil, errClosed("recv")
	}
	if _, err := c.CheckReadable(c.cfg.ioTimeout); err != nil {
		return nil, err
	}

	buf := make([]byte, ChunkSize)
	for {
		n, err := c.sys.recv(c.fd, buf)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return nil, sysErr("recv", err)
		}
		return buf[:n], nil
	}
}

func (c *Connection) stash(rest []byte) {
	if len(rest) == 0 {
		return
	}
	c.pending = append(c.pending, rest...)
}
