package netmode

import "testing"

func TestResolveLocal(t *testing.T) {
	b := Resolve(Options{})
	if b.Remote {
		t.Error("Expected local mode")
	}
	if b.Host != "127.0.0.1" {
		t.Errorf("Expected loopback host, got %q", b.Host)
	}
	if b.Port != 0 {
		t.Errorf("Expected ephemeral port 0, got %d", b.Port)
	}
}

func TestResolveLocalIgnoresPort(t *testing.T) {
	// An explicit port only applies to remote mode.
	b := Resolve(Options{Port: 9000})
	if b.Port != 0 {
		t.Errorf("Expected ephemeral port 0 in local mode, got %d", b.Port)
	}
}

func TestResolveRemoteDefaultPort(t *testing.T) {
	b := Resolve(Options{Remote: true})
	if !b.Remote {
		t.Error("Expected remote mode")
	}
	if b.Host != "0.0.0.0" {
		t.Errorf("Expected all-interfaces host, got %q", b.Host)
	}
	if b.Port != DefaultRemotePort {
		t.Errorf("Expected default port %d, got %d", DefaultRemotePort, b.Port)
	}
}

func TestResolveRemoteExplicitPort(t *testing.T) {
	b := Resolve(Options{Remote: true, Port: 8123})
	if b.Port != 8123 {
		t.Errorf("Expected port 8123, got %d", b.Port)
	}
}

func TestBindingAddr(t *testing.T) {
	b := Binding{Host: "127.0.0.1", Port: 4321}
	if got := b.Addr(); got != "127.0.0.1:4321" {
		t.Errorf("Expected 127.0.0.1:4321, got %q", got)
	}
}
