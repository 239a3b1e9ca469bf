package singleinstance

import (
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
)

const (
	defaultPortStart = 49600
	defaultPortEnd   = 49650

	minPort = 1024
	maxPort = 65535
)

// PortRange is the inclusive loopback port range. The resident binds Start;
// clients try every port so a resident from an older range is still found.
type PortRange struct {
	Start int
	End   int
}

// CurrentPortRange reads SINGLEINSTANCE_PORT_START and SINGLEINSTANCE_PORT_END.
// Unset or malformed values keep the defaults.
func CurrentPortRange() PortRange {
	r := PortRange{
		Start: portFromEnv("SINGLEINSTANCE_PORT_START", defaultPortStart),
		End:   portFromEnv("SINGLEINSTANCE_PORT_END", defaultPortEnd),
	}
	return r.clamped()
}

func portFromEnv(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("singleinstance: ignoring %s=%q: %v", key, v, err)
		return fallback
	}
	return n
}

// clamped keeps both ends inside the unprivileged range and in order.
func (r PortRange) clamped() PortRange {
	r.Start = max(r.Start, minPort)
	r.End = min(r.End, maxPort)
	if r.End < r.Start {
		r.Start, r.End = r.End, r.Start
	}
	return r
}

func (r PortRange) addr(port int) string {
	return net.JoinHostPort(residentHost, strconv.Itoa(port))
}

// ResidentAddr is where the resident listens.
func (r PortRange) ResidentAddr() string { return r.addr(r.Start) }

func (r PortRange) String() string { return fmt.Sprintf("%d-%d", r.Start, r.End) }
