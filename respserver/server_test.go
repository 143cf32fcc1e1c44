/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package respserver

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-respcache/cache"
	"github.com/acronis/go-respcache/log/logtest"
	"github.com/acronis/go-respcache/testutil"
)

type respClient struct {
	conn net.Conn
	r    *bufio.Reader
}

func dialRESP(t *testing.T, port int) *respClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &respClient{conn: conn, r: bufio.NewReader(conn)}
}

// do sends the command and returns the reply in a compact form:
// "+OK", "-ERR ...", ":1", "$value", "$<nil>" or "*a,b".
func (c *respClient) do(t *testing.T, args ...string) string {
	t.Helper()
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%d\r\n", len(args))
	for _, arg := range args {
		fmt.Fprintf(&sb, "$%d\r\n%s\r\n", len(arg), arg)
	}
	require.NoError(t, c.conn.SetDeadline(time.Now().Add(3*time.Second)))
	_, err := c.conn.Write([]byte(sb.String()))
	require.NoError(t, err)
	return c.readReply(t)
}

func (c *respClient) readReply(t *testing.T) string {
	t.Helper()
	line, err := c.r.ReadString('\n')
	require.NoError(t, err)
	line = strings.TrimSuffix(line, "\r\n")
	switch line[0] {
	case '$':
		n, err := strconv.Atoi(line[1:])
		require.NoError(t, err)
		if n < 0 {
			return "$<nil>"
		}
		buf := make([]byte, n+2)
		_, err = io.ReadFull(c.r, buf)
		require.NoError(t, err)
		return "$" + string(buf[:n])
	case '*':
		n, err := strconv.Atoi(line[1:])
		require.NoError(t, err)
		items := make([]string, 0, n)
		for i := 0; i < n; i++ {
			items = append(items, strings.TrimPrefix(c.readReply(t), "$"))
		}
		return "*" + strings.Join(items, ",")
	default:
		return line
	}
}

func startTestServer(t *testing.T) (*Server, *logtest.Recorder) {
	t.Helper()
	c, err := cache.New[[]byte](cache.Options{})
	require.NoError(t, err)
	recorder := logtest.NewRecorder()
	srv, err := New(&Config{Enabled: true, Address: "127.0.0.1:0"}, c, recorder)
	require.NoError(t, err)

	fatalErr := make(chan error, 1)
	go srv.Start(fatalErr)
	_, err = testutil.WaitPortAndListeningServer("127.0.0.1", srv.Port, 3*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, srv.Stop(true))
		require.Empty(t, fatalErr)
	})
	return srv, recorder
}

func TestServer_Commands(t *testing.T) {
	srv, recorder := startTestServer(t)
	client := dialRESP(t, srv.Port())

	require.Equal(t, "+PONG", client.do(t, "PING"))
	require.Equal(t, "+OK", client.do(t, "SET", "user1", "alice", "PX", "60000"))
	require.Equal(t, "$alice", client.do(t, "get", "user1"))
	require.Equal(t, "$<nil>", client.do(t, "GET", "user2"))
	require.Equal(t, "+OK", client.do(t, "SET", "user2", "bob", "BACKEND", "session"))
	require.Equal(t, "*user1", client.do(t, "CACHEKEYS"))
	require.Equal(t, ":1", client.do(t, "DEL", "user2", "BACKEND", "sessionPersistent"))
	require.Equal(t, "-ERR unknown command 'hget'", client.do(t, "HGET", "a", "b"))
	require.Eventually(t, func() bool { return srv.Connections() == 1 }, 3*time.Second, 10*time.Millisecond)

	_, found := recorder.FindEntry("RESP command failed")
	require.True(t, found)

	require.Equal(t, "+OK", client.do(t, "QUIT"))
	require.Eventually(t, func() bool { return srv.Connections() == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestServer_ValuesOutliveConnection(t *testing.T) {
	srv, _ := startTestServer(t)

	writer := dialRESP(t, srv.Port())
	require.Equal(t, "+OK", writer.do(t, "SET", "k", "first-value"))
	require.Equal(t, "+OK", writer.do(t, "SET", "k2", "second-value-overwriting-buffers"))
	require.Equal(t, "+OK", writer.do(t, "QUIT"))

	reader := dialRESP(t, srv.Port())
	require.Equal(t, "$first-value", reader.do(t, "GET", "k"))
	require.Equal(t, "$second-value-overwriting-buffers", reader.do(t, "GET", "k2"))
}

func TestServer_StartFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	c, err := cache.New[[]byte](cache.Options{})
	require.NoError(t, err)
	srv, err := New(&Config{Enabled: true, Address: ln.Addr().String()}, c, nil)
	require.NoError(t, err)

	fatalErr := make(chan error, 1)
	srv.Start(fatalErr)
	require.Error(t, <-fatalErr)
	require.NoError(t, srv.Stop(false))
}

func TestServer_StopRacingStart(t *testing.T) {
	for i := 0; i < 20; i++ {
		c, err := cache.New[[]byte](cache.Options{})
		require.NoError(t, err)
		srv, err := New(&Config{Enabled: true, Address: "127.0.0.1:0"}, c, nil)
		require.NoError(t, err)

		fatalErr := make(chan error, 1)
		started := make(chan struct{})
		done := make(chan struct{})
		go func() {
			close(started)
			srv.Start(fatalErr)
			close(done)
		}()
		<-started
		require.NoError(t, srv.Stop(false))

		select {
		case <-done:
		case <-time.After(3 * time.Second):
			require.FailNow(t, "RESP server keeps serving after Stop")
		}
		testutil.RequireNoErrorInChannel(t, fatalErr)
		require.Zero(t, srv.Port())
	}
}

func TestServer_StopBeforeStart(t *testing.T) {
	c, err := cache.New[[]byte](cache.Options{})
	require.NoError(t, err)
	srv, err := New(&Config{Enabled: true, Address: "127.0.0.1:0"}, c, nil)
	require.NoError(t, err)

	require.NoError(t, srv.Stop(true))
	fatalErr := make(chan error, 1)
	srv.Start(fatalErr)
	testutil.RequireNoErrorInChannel(t, fatalErr)
	require.Zero(t, srv.Port())
	require.NoError(t, srv.Stop(true))
}

func TestNew_Validation(t *testing.T) {
	c, err := cache.New[[]byte](cache.Options{})
	require.NoError(t, err)

	_, err = New(&Config{Address: ":0"}, nil, nil)
	require.Error(t, err)
	_, err = New(&Config{}, c, nil)
	require.Error(t, err)
}
