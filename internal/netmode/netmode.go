// Package netmode decides how a review session binds its listener:
// loopback with an ephemeral port for local review, or a fixed
// externally reachable port when the reviewer connects through a
// tunnel or port-forward.
package netmode

import (
	"fmt"
	"net"
)

// DefaultRemotePort is the well-known port used in remote mode when no
// explicit port is configured. Tunnel setups forward to this port, so
// only one remote session can run per host.
const DefaultRemotePort = 5599

// Options are the externally supplied signals, constructed once by the
// caller (typically from config) rather than read from the environment
// here.
type Options struct {
	Remote bool
	Port   int // 0 means "use the default" in remote mode
}

// Binding is the resolved listen address for a session.
type Binding struct {
	Host   string
	Port   int // 0 in local mode: the OS assigns an ephemeral port
	Remote bool
}

// Addr returns the host:port string to pass to net.Listen.
func (b Binding) Addr() string {
	return net.JoinHostPort(b.Host, fmt.Sprintf("%d", b.Port))
}

// Resolve maps the external signals to a concrete binding. Local mode
// binds loopback only with an OS-assigned port, so any number of
// sessions can coexist. Remote mode binds all interfaces on the fixed
// port.
func Resolve(opts Options) Binding {
	if opts.Remote {
		port := opts.Port
		if port == 0 {
			port = DefaultRemotePort
		}
		return Binding{Host: "0.0.0.0", Port: port, Remote: true}
	}
	return Binding{Host: "127.0.0.1", Port: 0, Remote: false}
}
