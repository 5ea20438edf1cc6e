// Package fakes provides loopback stand-ins for the port manager and the ring
// master so tests can drive the real client code over TCP.
package fakes

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// PortEntry is one allocation advertised by PortManager.
type PortEntry struct {
	Port    uint16
	Service string
	User    string
}

type PortManager struct {
	ln      net.Listener
	entries []PortEntry
	reply   string
	conns   atomic.Int64
	wg      sync.WaitGroup
}

// NewPortManager serves LIST with entries until the test ends.
func NewPortManager(t testing.TB, entries ...PortEntry) *PortManager {
	t.Helper()
	return startPortManager(t, entries, "")
}

// NewRawPortManager answers every request with reply verbatim.
func NewRawPortManager(t testing.TB, reply string) *PortManager {
	t.Helper()
	return startPortManager(t, nil, reply)
}

func startPortManager(t testing.TB, entries []PortEntry, reply string) *PortManager {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen portman: %v", err)
	}
	pm := &PortManager{ln: ln, entries: entries, reply: reply}
	pm.wg.Add(1)
	go pm.serve()
	t.Cleanup(pm.Close)
	return pm
}

func (pm *PortManager) Port() uint16 {
	return uint16(pm.ln.Addr().(*net.TCPAddr).Port)
}

// Connections reports how many clients have connected.
func (pm *PortManager) Connections() int {
	return int(pm.conns.Load())
}

func (pm *PortManager) Close() {
	_ = pm.ln.Close()
	pm.wg.Wait()
}

func (pm *PortManager) serve() {
	defer pm.wg.Done()
	for {
		conn, err := pm.ln.Accept()
		if err != nil {
			return
		}
		pm.conns.Add(1)
		pm.handle(conn)
	}
}

func (pm *PortManager) handle(conn net.Conn) {
	defer conn.Close()
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return
	}
	if pm.reply != "" {
		_, _ = conn.Write([]byte(pm.reply))
		return
	}
	if strings.TrimSpace(line) != "LIST" {
		_, _ = fmt.Fprintf(conn, "FAIL unknown request\n")
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "OK %d\n", len(pm.entries))
	for _, e := range pm.entries {
		fmt.Fprintf(&b, "%d %s %s\n", e.Port, e.Service, e.User)
	}
	_, _ = conn.Write([]byte(b.String()))
}

// UnusedPort returns a loopback port with nothing listening on it.
func UnusedPort(t testing.TB) uint16 {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		t.Fatalf("close listener: %v", err)
	}
	return port
}
