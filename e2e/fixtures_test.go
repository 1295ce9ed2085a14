//go:build e2e && unix

package main

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// greetingServer stands in for the greeting service
type greetingServer struct {
	*httptest.Server

	mu        sync.Mutex
	requests  []string
	failNames map[string]bool
	gates     map[string]*gate
}

type gate struct {
	ch   chan struct{}
	once sync.Once
}

func (g *gate) open() { g.once.Do(func() { close(g.ch) }) }

func newGreetingServer(t *testing.T, failNames ...string) *greetingServer {
	t.Helper()
	gs := &greetingServer{
		failNames: make(map[string]bool),
		gates:     make(map[string]*gate),
	}
	for _, n := range failNames {
		gs.failNames[n] = true
	}
	gs.Server = httptest.NewServer(http.HandlerFunc(gs.serve))
	t.Cleanup(func() {
		gs.mu.Lock()
		for _, g := range gs.gates {
			g.open()
		}
		gs.mu.Unlock()
		gs.Close()
	})
	return gs
}

// hold makes requests for name block until release is called
func (gs *greetingServer) hold(name string) (release func()) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	g := &gate{ch: make(chan struct{})}
	gs.gates[name] = g
	return g.open
}

func (gs *greetingServer) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/hello" {
		http.NotFound(w, r)
		return
	}
	name := r.URL.Query().Get("name")

	gs.mu.Lock()
	gs.requests = append(gs.requests, r.URL.RequestURI())
	held := gs.gates[name]
	fail := gs.failNames[name]
	gs.mu.Unlock()

	if held != nil {
		select {
		case <-held.ch:
		case <-r.Context().Done():
			return
		}
	}
	if fail {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}
	if name == "" {
		_, _ = w.Write([]byte("Hello from e2e"))
		return
	}
	_, _ = w.Write([]byte("Hello " + name + " from e2e"))
}

func (gs *greetingServer) count(uri string) int {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	n := 0
	for _, r := range gs.requests {
		if r == uri {
			n++
		}
	}
	return n
}
