// Package netcheck probes the node's peering port from the outside.
// The probe is advisory: UDP gives no delivery guarantee, so a silent
// peer is reported as a warning with remediation hints rather than a
// hard failure.
package netcheck

import (
	"fmt"
	"net"
	"time"
)

// Result describes the outcome of a reachability probe. A probe never
// fails the caller; Reachable and Detail carry everything the operator
// needs.
type Result struct {
	Host      string
	Port      int
	Reachable bool
	Detail    string
}

// CheckPort sends a single datagram to host:port and waits up to
// timeout for any response. Any answer counts as reachable. A timeout
// or send failure produces a warning result.
func CheckPort(host string, port int, timeout time.Duration) Result {
	res := Result{
		Host: host,
		Port: port,
	}

	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))

	conn, err := net.DialTimeout("udp", addr, timeout)
	if err != nil {
		res.Detail = fmt.Sprintf("cannot resolve %s: %v", addr, err)
		return res
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(timeout))

	if _, err := conn.Write([]byte("nockup-probe")); err != nil {
		res.Detail = fmt.Sprintf("cannot send probe to %s: %v", addr, err)
		return res
	}

	buf := make([]byte, 512)
	if _, err := conn.Read(buf); err != nil {
		res.Detail = fmt.Sprintf("no response from %s within %s: check that UDP port %d is forwarded and not blocked by a firewall", addr, timeout, port)
		return res
	}

	res.Reachable = true
	res.Detail = fmt.Sprintf("UDP port %d reachable via %s", port, host)
	return res
}
