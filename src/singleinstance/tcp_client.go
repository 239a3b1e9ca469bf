package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"
)

type tcpClient struct{}

func newTcpClient() Client { return &tcpClient{} }

// TryTrigger pings the range and sends CAPTURE to the first resident found.
func (c *tcpClient) TryTrigger(ctx context.Context) (bool, error) {
	r := CurrentPortRange()
	for port := r.Start; port <= r.End; port++ {
		if ctx.Err() != nil {
			return false, nil
		}
		addr := r.addr(port)
		if !ping(ctx, addr) {
			continue
		}
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			continue
		}
		delegated, err := trigger(ctx, conn)
		if delegated {
			return true, err
		}
	}
	return false, nil
}

// trigger sends CAPTURE and waits for the session outcome. The user may take
// as long as they like to select, so only ctx bounds the wait.
func trigger(ctx context.Context, conn net.Conn) (bool, error) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(captureRequest); err != nil {
		return true, err
	}
	if err := w.Flush(); err != nil {
		return true, err
	}
	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		if ctx.Err() != nil {
			return true, ctx.Err()
		}
		return true, err
	}
	switch status {
	case successResponse:
		return true, nil
	case errorResponse:
		msg, _ := io.ReadAll(br)
		return true, errors.New(strings.TrimSpace(string(msg)))
	}
	return false, nil
}
