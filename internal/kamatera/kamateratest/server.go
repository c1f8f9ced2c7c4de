// Package kamateratest provides an in-memory Kamatera API for tests.
package kamateratest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

const (
	APIKey    = "test-key"
	APISecret = "test-secret"
)

// Machine is one fake server.
type Machine struct {
	ID          string
	Name        string
	Status      string
	Power       string
	NetworkName string
	IP          string
}

// Call records one request the fake received.
type Call struct {
	Method string
	Path   string
	Body   string
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	machines []*Machine
	calls    []Call

	// FailPower makes power calls for these ids answer 500.
	FailPower map[string]bool
	// FailDetail makes detail calls for these ids answer 500.
	FailDetail map[string]bool
	// AllowNetworkChange accepts PUT /server/{id} network changes; most
	// real accounts answer 403.
	AllowNetworkChange bool
	// RejectNetwork makes network changes for these ids fail even when allowed.
	RejectNetwork map[string]bool
}

func New(machines ...Machine) *Server {
	s := &Server{
		FailPower:     map[string]bool{},
		FailDetail:    map[string]bool{},
		RejectNetwork: map[string]bool{},
	}
	for i := range machines {
		m := machines[i]
		s.machines = append(s.machines, &m)
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Calls returns a copy of every request seen so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsMatching returns the calls with the given method whose path ends with suffix.
func (s *Server) CallsMatching(method, suffix string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method && strings.HasSuffix(c.Path, suffix) {
			out = append(out, c)
		}
	}
	return out
}

// Machine returns a snapshot of the fake server with id.
func (s *Server) Machine(id string) (Machine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.find(id); m != nil {
		return *m, true
	}
	return Machine{}, false
}

func (s *Server) find(id string) *Machine {
	for _, m := range s.machines {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, Body: string(body)})

	if r.Header.Get("AuthClientId") != APIKey || r.Header.Get("AuthSecret") != APISecret {
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodGet && len(parts) == 1 && parts[0] == "servers":
		list := make([]map[string]any, 0, len(s.machines))
		for _, m := range s.machines {
			list = append(list, map[string]any{"id": m.ID, "name": m.Name, "status": m.Status, "power": m.Power})
		}
		writeJSON(w, list)

	case r.Method == http.MethodGet && len(parts) == 2 && parts[0] == "server":
		m := s.find(parts[1])
		if m == nil {
			http.Error(w, "server not found", http.StatusNotFound)
			return
		}
		if s.FailDetail[m.ID] {
			http.Error(w, "detail unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{
			"id": m.ID, "name": m.Name, "status": m.Status, "power": m.Power,
			"datacenter": "EU",
			"networks":   []any{map[string]any{"name": m.NetworkName, "ips": []any{m.IP}}},
		})

	case r.Method == http.MethodPut && len(parts) == 3 && parts[0] == "server" && parts[2] == "power":
		m := s.find(parts[1])
		if m == nil {
			http.Error(w, "server not found", http.StatusNotFound)
			return
		}
		if s.FailPower[m.ID] {
			http.Error(w, "power operation failed", http.StatusInternalServerError)
			return
		}
		var req struct {
			Power string `json:"power"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		switch req.Power {
		case "on", "reboot":
			m.Power, m.Status = "on", "running"
		case "off":
			m.Power, m.Status = "off", "stopped"
		default:
			http.Error(w, "invalid power value", http.StatusBadRequest)
			return
		}
		writeJSON(w, []int{len(s.calls)})

	case r.Method == http.MethodPut && len(parts) == 2 && parts[0] == "server":
		m := s.find(parts[1])
		if m == nil {
			http.Error(w, "server not found", http.StatusNotFound)
			return
		}
		if !s.AllowNetworkChange || s.RejectNetwork[m.ID] {
			http.Error(w, "network modification is not supported for this account", http.StatusForbidden)
			return
		}
		var req struct {
			Networks []struct {
				Name string `json:"name"`
			} `json:"networks"`
		}
		if err := json.Unmarshal(body, &req); err != nil || len(req.Networks) == 0 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		m.NetworkName = req.Networks[0].Name
		if m.NetworkName == "local" {
			m.IP = fmt.Sprintf("10.0.0.%d", len(s.calls))
		} else {
			m.IP = fmt.Sprintf("185.0.0.%d", len(s.calls))
		}
		writeJSON(w, map[string]any{"ok": true})

	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
