package fakes

import (
	"bufio"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// Registrar accepts CONNECT requests, answers each with a fixed reply and
// reports when a registered client's connection goes away.
type Registrar struct {
	ln       net.Listener
	reply    string
	conns    atomic.Int64
	mu       sync.Mutex
	requests []string
	active   map[net.Conn]struct{}
	departed chan string
	wg       sync.WaitGroup
}

// NewRegistrar answers every request with reply (a trailing newline is added
// when missing).
func NewRegistrar(t testing.TB, reply string) *Registrar {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen registrar: %v", err)
	}
	if len(reply) == 0 || reply[len(reply)-1] != '\n' {
		reply += "\n"
	}
	r := &Registrar{
		ln:       ln,
		reply:    reply,
		active:   make(map[net.Conn]struct{}),
		departed: make(chan string, 16),
	}
	r.wg.Add(1)
	go r.serve()
	t.Cleanup(r.Close)
	return r
}

func (r *Registrar) Port() uint16 {
	return uint16(r.ln.Addr().(*net.TCPAddr).Port)
}

func (r *Registrar) Connections() int {
	return int(r.conns.Load())
}

// Requests returns the request lines received so far, newline stripped.
func (r *Registrar) Requests() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.requests))
	copy(out, r.requests)
	return out
}

// WaitDeparture blocks until a client connection closes and returns its
// request line.
func (r *Registrar) WaitDeparture(timeout time.Duration) (string, bool) {
	select {
	case req := <-r.departed:
		return req, true
	case <-time.After(timeout):
		return "", false
	}
}

// Close stops accepting and drops every connection still open.
func (r *Registrar) Close() {
	_ = r.ln.Close()
	r.mu.Lock()
	for conn := range r.active {
		_ = conn.Close()
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Registrar) serve() {
	defer r.wg.Done()
	for {
		conn, err := r.ln.Accept()
		if err != nil {
			return
		}
		r.conns.Add(1)
		r.mu.Lock()
		r.active[conn] = struct{}{}
		r.mu.Unlock()
		r.wg.Add(1)
		go r.handle(conn)
	}
}

func (r *Registrar) handle(conn net.Conn) {
	defer r.wg.Done()
	defer func() {
		r.mu.Lock()
		delete(r.active, conn)
		r.mu.Unlock()
		_ = conn.Close()
	}()

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		return
	}
	req := line[:len(line)-1]
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()

	if _, err := io.WriteString(conn, r.reply); err != nil {
		return
	}
	// The lease carries no further traffic; a read returning means the
	// client closed it.
	_, _ = io.Copy(io.Discard, reader)
	select {
	case r.departed <- req:
	default:
	}
}
