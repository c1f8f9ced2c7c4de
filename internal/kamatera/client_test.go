package kamatera

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/service/", "key-1", "secret-1", 5*time.Second)
}

func TestDo_SendsAuthHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("AuthClientId") != "key-1" || r.Header.Get("AuthSecret") != "secret-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/service/ping" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("x") != "1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	})

	res, err := c.Do(context.Background(), http.MethodGet, "/ping", map[string]string{"x": "1"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	m, ok := res.(map[string]any)
	if !ok || m["ok"] != true {
		t.Fatalf("unexpected decoded response %#v", res)
	}
}

func TestDo_TextAndErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/service/text":
			w.Write([]byte("queued"))
		case "/service/boom":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("internal failure\n"))
		}
	})

	res, err := c.Do(context.Background(), http.MethodGet, "/text", nil)
	if err != nil || res != "queued" {
		t.Fatalf("expected raw text, got %#v (%v)", res, err)
	}

	_, err = c.Do(context.Background(), http.MethodGet, "/boom", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != 500 || apiErr.Body != "internal failure" || apiErr.Path != "/boom" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestDo_MissingCredentials(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "", time.Second)
	if _, err := c.Do(context.Background(), http.MethodGet, "/servers", nil); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if called {
		t.Fatalf("no request must be sent without credentials")
	}
}

func TestListServers_Shapes(t *testing.T) {
	bodies := map[string]string{
		"bare":    `[{"id":"a","name":"web","status":"running","power":"on"},"junk"]`,
		"servers": `{"servers":[{"id":"a","name":"web"}]}`,
		"items":   `{"items":[{"id":"a"}]}`,
		"data":    `{"data":[{"id":"a"}]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})
			servers, err := c.ListServers(context.Background())
			if err != nil {
				t.Fatalf("ListServers: %v", err)
			}
			if len(servers) != 1 || servers[0].ID != "a" {
				t.Fatalf("unexpected servers %+v", servers)
			}
		})
	}
}

func TestListServers_Empty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"servers":[]}`))
	})
	servers, err := c.ListServers(context.Background())
	if err != nil || len(servers) != 0 {
		t.Fatalf("expected empty list, got %+v (%v)", servers, err)
	}
}

func TestSetPower(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &gotBody)
		w.Write([]byte(`[123]`))
	})

	if _, err := c.SetPower(context.Background(), "srv 1", PowerOff); err != nil {
		t.Fatalf("SetPower: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/service/server/srv 1/power" || gotBody["power"] != "off" {
		t.Fatalf("unexpected request %s %s %v", gotMethod, gotPath, gotBody)
	}
}

func TestSetNetwork(t *testing.T) {
	var got struct {
		Networks []struct {
			Name string `json:"name"`
		} `json:"networks"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/service/server/abc" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &got)
		w.Write([]byte(`{}`))
	})

	if err := c.SetNetwork(context.Background(), "abc", NetworkPublic); err != nil {
		t.Fatalf("SetNetwork: %v", err)
	}
	if len(got.Networks) != 1 || got.Networks[0].Name != "internet" {
		t.Fatalf("unexpected payload %+v", got)
	}
	if err := c.SetNetwork(context.Background(), "abc", NetworkPrivate); err != nil {
		t.Fatalf("SetNetwork: %v", err)
	}
	if got.Networks[0].Name != "local" {
		t.Fatalf("expected local for private, got %+v", got)
	}
}

func TestGetServer_NotObject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["x"]`))
	})
	if _, err := c.GetServer(context.Background(), "a"); err == nil {
		t.Fatalf("expected error for non-object detail")
	}
}

func TestParsers(t *testing.T) {
	if a, err := ParsePowerAction(" OFF "); err != nil || a != PowerOff || a.DisplayName() != "Power Off" {
		t.Fatalf("ParsePowerAction: %v %v", a, err)
	}
	if _, err := ParsePowerAction("suspend"); err == nil {
		t.Fatalf("expected error for unknown action")
	}
	if n, err := ParseNetwork("Private"); err != nil || n != NetworkPrivate || n.Title() != "Private" {
		t.Fatalf("ParseNetwork: %v %v", n, err)
	}
	if _, err := ParseNetwork("dmz"); err == nil {
		t.Fatalf("expected error for unknown network")
	}
}

func TestStringField(t *testing.T) {
	m := map[string]any{"a": "x", "b": float64(42), "c": 1.5, "d": nil, "e": true}
	cases := map[string]string{"a": "x", "b": "42", "c": "1.5", "d": "", "e": "true", "missing": ""}
	for k, want := range cases {
		if got := StringField(m, k); got != want {
			t.Errorf("StringField(%s) = %q, want %q", k, got, want)
		}
	}
}
