package singleinstance

import (
	"bufio"
	"context"
	"net"
	"time"
)

const pingTimeout = 300 * time.Millisecond

// DetectResidentPort returns the first port in the range whose listener
// answers PING with PONG.
func DetectResidentPort(ctx context.Context) (int, bool) {
	r := CurrentPortRange()
	for port := r.Start; port <= r.End; port++ {
		if ctx.Err() != nil {
			return 0, false
		}
		if ping(ctx, r.addr(port)) {
			return port, true
		}
	}
	return 0, false
}

// ping reports whether addr hosts a resident. Each attempt is bounded by
// pingTimeout or ctx, whichever ends first.
func ping(ctx context.Context, addr string) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	defer conn.Close()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	if _, err := conn.Write([]byte(pingRequest)); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == pongResponse
}
