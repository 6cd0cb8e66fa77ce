package server

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/cuemby/zakros/pkg/dispatcher"
	"github.com/cuemby/zakros/pkg/keyspace"
	"github.com/cuemby/zakros/pkg/pubsub"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) (*Server, net.Conn) {
	t.Helper()
	d := dispatcher.New(keyspace.New(), nil, 0, nil, pubsub.New(), nil)
	s := New("127.0.0.1:0", 0, d)

	ln, err := net.Listen("tcp", s.Addr)
	require.NoError(t, err)
	s.listener = ln

	go func() {
		for {
			nc, err := ln.Accept()
			if err != nil {
				return
			}
			go s.serve(nc)
		}
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
		ln.Close()
	})
	return s, conn
}

func TestServerPingPong(t *testing.T) {
	_, conn := startTestServer(t)
	conn.SetDeadline(time.Now().Add(2 * time.Second))

	_, err := conn.Write([]byte("*1\r\n$4\r\nPING\r\n"))
	require.NoError(t, err)

	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "+PONG\r\n", line)
}

func TestServerSetGetRoundTrip(t *testing.T) {
	_, conn := startTestServer(t)
	conn.SetDeadline(time.Now().Add(2 * time.Second))
	br := bufio.NewReader(conn)

	_, err := conn.Write([]byte("*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n"))
	require.NoError(t, err)
	line, err := br.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "+OK\r\n", line)

	_, err = conn.Write([]byte("*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n"))
	require.NoError(t, err)
	line, err = br.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "$3\r\n", line)
	payload, err := br.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "bar\r\n", payload)
}

func TestServerInlineCommand(t *testing.T) {
	_, conn := startTestServer(t)
	conn.SetDeadline(time.Now().Add(2 * time.Second))

	_, err := conn.Write([]byte("PING\r\n"))
	require.NoError(t, err)
	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "+PONG\r\n", line)
}
