package netutil

import (
	"errors"
	"fmt"
	"net"

	"github.com/jackpal/gateway"
)

var ErrLocalAddress = errors.New("failed to detect local IPv4 address")

// probeAddress is never contacted: dialing UDP only selects a route.
const probeAddress = "8.8.8.8:80"

// LocalIPv4 returns the address of the interface holding the default route.
func LocalIPv4() (net.IP, error) {
	if ip, err := gateway.DiscoverInterface(); err == nil {
		if v4 := ip.To4(); v4 != nil && !v4.IsLoopback() {
			return v4, nil
		}
	}

	conn, err := net.Dial("udp4", probeAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocalAddress, err)
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP.To4() == nil {
		return nil, ErrLocalAddress
	}
	return addr.IP.To4(), nil
}

// BroadcastAddr keeps the first three octets of ip and replaces the last with 255.
func BroadcastAddr(ip net.IP, port int) (*net.UDPAddr, error) {
	v4 := ip.To4()
	if v4 == nil {
		return nil, fmt.Errorf("not an IPv4 address: %s", ip)
	}
	return &net.UDPAddr{
		IP:   net.IPv4(v4[0], v4[1], v4[2], 255),
		Port: port,
	}, nil
}

// HostOf strips the port from a host:port address; other strings are returned unchanged.
func HostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
