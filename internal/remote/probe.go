package remote

import (
	"context"
	"net"
	"net/url"
	"time"

	psnet "github.com/shirou/gopsutil/v3/net"
)

// Probe reports reachability by requiring an up, non-loopback interface and a
// successful TCP dial to the remote host.
type Probe struct {
	address    string
	timeout    time.Duration
	interfaces func(ctx context.Context) ([]psnet.InterfaceStat, error)
	dial       func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewProbe creates a probe for the host of rawURL. Hosts without a port use
// the scheme's default.
func NewProbe(rawURL string, timeout time.Duration) (*Probe, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	port := u.Port()
	if port == "" {
		port = "443"
		if u.Scheme == "http" {
			port = "80"
		}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	d := &net.Dialer{}
	return &Probe{
		address:    net.JoinHostPort(u.Hostname(), port),
		timeout:    timeout,
		interfaces: func(ctx context.Context) ([]psnet.InterfaceStat, error) {
			return psnet.InterfacesWithContext(ctx)
		},
		dial:       d.DialContext,
	}, nil
}

// Address returns the host:port the probe dials.
func (p *Probe) Address() string {
	return p.address
}

// Reachable implements checks.Reachability.
func (p *Probe) Reachable(ctx context.Context) bool {
	if !p.hasActiveInterface(ctx) {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	conn, err := p.dial(ctx, "tcp", p.address)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func (p *Probe) hasActiveInterface(ctx context.Context) bool {
	ifaces, err := p.interfaces(ctx)
	if err != nil {
		// Interface listing is unsupported on some platforms; let the dial decide.
		return true
	}
	for _, iface := range ifaces {
		up, loopback := false, false
		for _, flag := range iface.Flags {
			switch flag {
			case "up":
				up = true
			case "loopback":
				loopback = true
			}
		}
		if up && !loopback {
			return true
		}
	}
	return false
}
