package peer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// fallbackDNS is queried when the system resolver cannot find the relay.
var fallbackDNS = []string{
	"1.1.1.1",         // Cloudflare
	"1.0.0.1",         // Cloudflare
	"8.8.8.8",         // Google
	"8.8.4.4",         // Google
	"9.9.9.9",         // Quad9
	"208.67.222.222",  // Cisco OpenDNS
	"149.112.112.112", // Quad9
}

const (
	localLookupTimeout  = time.Second
	remoteLookupTimeout = 2 * time.Second
)

// Resolver finds an address for the relay host, first through the system
// resolver and then by racing public DNS servers.
type Resolver struct {
	// Servers are the fallback DNS servers. Empty disables the fallback.
	Servers []string

	// lookup resolves host against server, or the system resolver when server is "".
	lookup func(ctx context.Context, host, server string) ([]string, error)
}

// NewResolver returns a Resolver with the default public fallback servers.
func NewResolver() *Resolver {
	return &Resolver{Servers: fallbackDNS, lookup: lookupHost}
}

// Resolve returns one IP for host, preferring IPv4. IP literals are returned as-is.
func (r *Resolver) Resolve(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return host, nil
	}

	localCtx, cancel := context.WithTimeout(ctx, localLookupTimeout)
	ips, err := r.lookup(localCtx, host, "")
	cancel()
	if err == nil && len(ips) > 0 {
		return preferIPv4(ips), nil
	}

	if len(r.Servers) == 0 {
		if err == nil {
			err = errors.New("no IP addresses found")
		}
		return "", fmt.Errorf("resolve %s: %w", host, err)
	}
	return r.race(ctx, host)
}

// race queries every fallback server at once and takes the first answer.
func (r *Resolver) race(ctx context.Context, host string) (string, error) {
	type result struct {
		ip  string
		err error
	}

	ctx, cancel := context.WithTimeout(ctx, remoteLookupTimeout)
	defer cancel()

	results := make(chan result, len(r.Servers))
	for _, server := range r.Servers {
		go func(server string) {
			ips, err := r.lookup(ctx, host, server)
			if err == nil && len(ips) == 0 {
				err = errors.New("no IPs returned")
			}
			if err != nil {
				results <- result{err: err}
				return
			}
			results <- result{ip: preferIPv4(ips)}
		}(server)
	}

	for range r.Servers {
		select {
		case res := <-results:
			if res.err == nil {
				return res.ip, nil
			}
		case <-ctx.Done():
			return "", fmt.Errorf("resolve %s: fallback DNS timed out", host)
		}
	}

	return "", fmt.Errorf("resolve %s: all %d fallback DNS servers failed", host, len(r.Servers))
}

// DialContext resolves the host part of addr before dialing, for use as
// a websocket dialer's NetDialContext.
func (r *Resolver) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}

	ip, err := r.Resolve(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("dns lookup failed: %w", err)
	}

	var d net.Dialer
	return d.DialContext(ctx, network, net.JoinHostPort(ip, port))
}

func lookupHost(ctx context.Context, host, server string) ([]string, error) {
	r := &net.Resolver{}
	if server != "" {
		r.PreferGo = true
		r.Dial = func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, net.JoinHostPort(server, "53"))
		}
	}
	return r.LookupHost(ctx, host)
}

func preferIPv4(ips []string) string {
	for _, ip := range ips {
		if net.ParseIP(ip).To4() != nil {
			return ip
		}
	}
	return ips[0]
}
