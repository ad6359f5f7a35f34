package tcpconn

import (
	"context"
	"net"
	"net/netip"

	"golang.org/x/sys/unix"
)

// resolvePassive maps a port or service name to the IPv4 wildcard address,
// the equivalent of getaddrinfo(NULL, service) with AI_PASSIVE.
func resolvePassive(service string) (*unix.SockaddrInet4, error) {
	port, err := lookupPort(service)
	if err != nil {
		return nil, err
	}
	return &unix.SockaddrInet4{Port: port}, nil
}

// resolveActive maps host and service to an IPv4 stream address. host may be
// a dotted quad or a name looked up through the system resolver.
func resolveActive(host, service string) (*unix.SockaddrInet4, error) {
	port, err := lookupPort(service)
	if err != nil {
		return nil, err
	}

	addr, err := lookupHost(host)
	if err != nil {
		return nil, err
	}
	return &unix.SockaddrInet4{Port: port, Addr: addr.As4()}, nil
}

func lookupPort(service string) (int, error) {
	port, err := net.DefaultResolver.LookupPort(context.Background(), "tcp", service)
	if err != nil {
		return 0, &ResolutionError{Op: "getaddrinfo", Host: service, Err: err}
	}
	return port, nil
}

func lookupHost(host string) (netip.Addr, error) {
	if ip, err := netip.ParseAddr(host); err == nil {
		ip = ip.Unmap()
		if !ip.Is4() {
			return netip.Addr{}, &ResolutionError{Op: "getaddrinfo", Host: host, Err: &net.AddrError{Err: "not an IPv4 address", Addr: host}}
		}
		return ip, nil
	}

	addrs, err := net.DefaultResolver.LookupNetIP(context.Background(), "ip4", host)
	if err != nil {
		return netip.Addr{}, &ResolutionError{Op: "getaddrinfo", Host: host, Err: err}
	}
	for _, a := range addrs {
		if a = a.Unmap(); a.Is4() {
			return a, nil
		}
	}
	return netip.Addr{}, &ResolutionError{Op: "getaddrinfo", Host: host, Err: &net.DNSError{Err: "no IPv4 address", Name: host, IsNotFound: true}}
}
