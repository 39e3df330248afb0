package netif

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"
)

const (
	// BasePort is where automatic port selection starts.
	BasePort = 8001

	// ScanRange is the number of consecutive ports tried from BasePort.
	ScanRange = 10
)

var (
	ErrPortInUse  = errors.New("port already in use")
	ErrNoFreePort = errors.New("no free port in scan range")
)

// Listen binds a TCP listener on host. A non-zero port is bound as is and
// fails with ErrPortInUse when taken; other bind errors are returned as is.
// Port 0 tries BasePort through BasePort+ScanRange-1 and returns the first
// listener that binds.
//
// The returned listener is meant to be served on directly so the port cannot
// be lost between scanning and serving.
func Listen(host string, port int) (net.Listener, error) {
	if port != 0 {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			if errors.Is(err, syscall.EADDRINUSE) {
				return nil, fmt.Errorf("port %d: %w", port, ErrPortInUse)
			}

			return nil, err
		}

		return ln, nil
	}

	return scan(host, BasePort, ScanRange)
}

func scan(host string, base, count int) (net.Listener, error) {
	for p := base; p < base+count; p++ {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(p)))
		if err == nil {
			return ln, nil
		}
	}

	return nil, fmt.Errorf("ports %d-%d: %w", base, base+count-1, ErrNoFreePort)
}

// Port reports the TCP port a listener is bound to.
func Port(ln net.Listener) int {
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}

	return 0
}
