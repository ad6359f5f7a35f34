package main

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/roadrunner-server/tcplisten"
	"golang.org/x/sync/errgroup"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func testCommon() *commonOptions {
	return &commonOptions{timeout: 2 * time.Second}
}

// freePort returns a loopback port that was free a moment ago.
func freePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp4", "127.0.0.1:0")
	assert.NilError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	assert.NilError(t, l.Close())
	return strconv.Itoa(port)
}

func dialRetry(t *testing.T, port string) net.Conn {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.Dial("tcp4", net.JoinHostPort("127.0.0.1", port))
		if err == nil {
			return conn
		}
		if time.Now().After(deadline) {
			t.Fatalf("dial: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDial(t *testing.T) {
	cfg := tcplisten.Config{}
	_, l, err := cfg.NewListenerWithFD("tcp4", "127.0.0.1:0")
	assert.NilError(t, err)
	defer l.Close()

	var g errgroup.Group
	var request string
	g.Go(func() error {
		conn, err := l.Accept()
		if err != nil {
			return err
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		var b bytes.Buffer
		for !bytes.HasSuffix(b.Bytes(), []byte("\r\n\r\n")) {
			c, err := r.ReadByte()
			if err != nil {
				return err
			}
			b.WriteByte(c)
		}
		request = b.String()
		_, err = conn.Write([]byte("OK\r\n\r\n"))
		return err
	})

	var out bytes.Buffer
	port := strconv.Itoa(l.Addr().(*net.TCPAddr).Port)
	err = runDial(&out, dialOptions{common: testCommon(), host: "127.0.0.1", port: port}, "hello")
	assert.NilError(t, err)
	assert.NilError(t, g.Wait())

	assert.Equal(t, request, "hello\r\n\r\n")
	assert.Equal(t, out.String(), "OK\n")
}

func TestListen(t *testing.T) {
	for _, tc := range []struct {
		name    string
		size    string
		payload string
		want    string
	}{
		{name: "terminated", payload: "hello\r\n\r\n", want: "hello\n"},
		{name: "sized", size: "4", payload: "abcd", want: "abcd\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			port := freePort(t)

			var out bytes.Buffer
			var g errgroup.Group
			g.Go(func() error {
				return runListen(&out, listenOptions{common: testCommon(), port: port, backlog: 1, size: tc.size})
			})

			conn := dialRetry(t, port)
			defer conn.Close()
			_, err := conn.Write([]byte(tc.payload))
			assert.NilError(t, err)

			reply, err := io.ReadAll(conn)
			assert.NilError(t, err)
			assert.NilError(t, g.Wait())

			assert.Equal(t, string(reply), "OK\r\n\r\n")
			assert.Equal(t, out.String(), tc.want)
		})
	}
}

func TestListenInvalidSize(t *testing.T) {
	err := runListen(io.Discard, listenOptions{common: testCommon(), port: "0", backlog: 1, size: "lots"})
	assert.Check(t, is.ErrorContains(err, "invalid --size"))
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"dial", "--help"})
	cmd.SetOut(io.Discard)
	assert.NilError(t, cmd.Execute())

	f := cmd.PersistentFlags().Lookup("timeout")
	assert.Assert(t, f != nil)
	assert.Equal(t, f.DefValue, "5s")
}
