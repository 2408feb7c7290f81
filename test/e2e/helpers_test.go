package e2e_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/alexjbarnes/farmdesk/internal/farmapi"
	"github.com/alexjbarnes/farmdesk/internal/mcpserver"
	"github.com/alexjbarnes/farmdesk/internal/resources"
	"github.com/alexjbarnes/farmdesk/internal/session"
	"github.com/alexjbarnes/farmdesk/internal/state"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

const (
	testUsername = "alice"
	testPassword = "pw1"
	testEmail    = "alice@farm.example"
	testOTP      = "246810"
	preOTPToken  = "pre-otp-token"
	industryID   = 5
)

// farm is an in-memory farm backend. It issues a pre-OTP token for the
// password step, a token pair for a verified code, and serves bookings
// to holders of a live access token.
type farm struct {
	mu       sync.Mutex
	live     map[string]bool
	issued   int
	otpSent  int
	bookings []map[string]interface{}
	nextID   int
}

func newFarm() *farm {
	return &farm{live: map[string]bool{}, bookings: []map[string]interface{}{}, nextID: 1}
}

// revoke invalidates every issued access token.
func (f *farm) revoke() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live = map[string]bool{}
}

func (f *farm) authorized(r *http.Request, allowPreOTP bool) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	if allowPreOTP && token == preOTPToken {
		return true
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live[token]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func detail(msg string) map[string]string {
	return map[string]string{"detail": msg}
}

func (f *farm) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /token/", func(w http.ResponseWriter, r *http.Request) {
		var req farmapi.TokenRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Username != testUsername || req.Password != testPassword {
			writeJSON(w, http.StatusUnauthorized, detail("No active account found with the given credentials"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access": preOTPToken, "refresh": "pre-otp-refresh"})
	})

	mux.HandleFunc("GET /users/me/", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(r, true) {
			writeJSON(w, http.StatusUnauthorized, detail("Given token not valid for any token type"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":         1,
			"username":   testUsername,
			"email":      testEmail,
			"first_name": "Alice",
			"role":       map[string]interface{}{"id": 1, "name": "owner", "display_name": "Owner"},
			"industry":   map[string]interface{}{"id": industryID, "name": "Green Acres"},
		})
	})

	mux.HandleFunc("POST /otp/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.otpSent++
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent"})
	})

	mux.HandleFunc("POST /verify-otp/", func(w http.ResponseWriter, r *http.Request) {
		var req farmapi.VerifyOTPRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != testEmail || req.OTP != testOTP {
			writeJSON(w, http.StatusBadRequest, detail("Invalid OTP"))
			return
		}

		f.mu.Lock()
		f.issued++
		n := strconv.Itoa(f.issued)
		f.live["access-"+n] = true
		f.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]string{"access": "access-" + n, "refresh": "refresh-" + n})
	})

	mux.HandleFunc("GET /users/dashboard-counts/", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(r, false) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		n := len(f.bookings)
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]int{
			"bookings_count": n, "vendors_count": 0, "stock_items_count": 0, "orders_count": 0,
		})
	})

	mux.HandleFunc("GET /users/team-connect/", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(r, false) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"users_by_role": map[string]interface{}{
				"owners":         []map[string]string{{"username": testUsername, "email": testEmail}},
				"managers":       []interface{}{},
				"field_officers": []interface{}{},
				"farmers":        []map[string]string{{"username": "dev", "phone_number": "555-0101"}},
			},
		})
	})

	mux.HandleFunc("/bookings/", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(r, false) {
			writeJSON(w, http.StatusUnauthorized, detail("Given token not valid for any token type"))
			return
		}
		f.bookingsHandler(w, r)
	})

	return mux
}

func (f *farm) bookingsHandler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/bookings/"), "/")
	if rest == "" {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]interface{}{"count": len(f.bookings), "results": f.bookings})
		case http.MethodPost:
			var b map[string]interface{}
			json.NewDecoder(r.Body).Decode(&b)
			b["id"] = f.nextID
			f.nextID++
			f.bookings = append(f.bookings, b)
			writeJSON(w, http.StatusCreated, b)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	id, _ := strconv.Atoi(rest)
	for i, b := range f.bookings {
		if b["id"] != id {
			continue
		}
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, b)
		case http.MethodPatch:
			var patch map[string]interface{}
			json.NewDecoder(r.Body).Decode(&patch)
			for k, v := range patch {
				b[k] = v
			}
			writeJSON(w, http.StatusOK, b)
		case http.MethodDelete:
			f.bookings = append(f.bookings[:i], f.bookings[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	writeJSON(w, http.StatusNotFound, detail("Not found."))
}

// stack is one farmdesk process: state file, controller, gateway,
// record service and an MCP client session.
type stack struct {
	farm      *farm
	url       string
	statePath string
	store     *state.State
	ctrl      *session.Controller
	svc       *resources.Service
	mcp       *mcp.ClientSession
}

func newStack(t *testing.T) *stack {
	t.Helper()

	f := newFarm()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	s := &stack{farm: f, url: srv.URL, statePath: filepath.Join(t.TempDir(), "state.db")}
	s.start(t)

	return s
}

// start opens the state file and wires a fresh process around it.
func (s *stack) start(t *testing.T) {
	t.Helper()

	st, err := state.LoadAt(s.statePath)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := farmapi.NewClient(s.url, nil)
	ctrl := session.NewController(client, st, logger)
	svc := resources.NewService(farmapi.NewGateway(client, st, ctrl, logger), logger)

	server := mcp.NewServer(&mcp.Implementation{Name: "farmdesk-e2e", Version: "test"}, nil)
	mcpserver.RegisterTools(server, svc, ctrl)

	ctx := context.Background()
	t1, t2 := mcp.NewInMemoryTransports()
	_, err = server.Connect(ctx, t1, nil)
	require.NoError(t, err)

	cs, err := mcp.NewClient(&mcp.Implementation{Name: "e2e-client", Version: "test"}, nil).Connect(ctx, t2, nil)
	require.NoError(t, err)

	s.store, s.ctrl, s.svc, s.mcp = st, ctrl, svc, cs
	t.Cleanup(s.stop)
}

// stop closes the MCP session and the state file. Safe to call twice.
func (s *stack) stop() {
	if s.mcp != nil {
		s.mcp.Close()
		s.mcp = nil
	}
	if s.store != nil {
		s.store.Close()
		s.store = nil
	}
}

// login runs both steps with the right password and code.
func (s *stack) login(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.ctrl.SubmitCredentials(ctx, testUsername, testPassword))
	require.NoError(t, s.ctrl.VerifyOTP(ctx, testOTP))
}

func (s *stack) callTool(t *testing.T, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	result, err := s.mcp.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return result
}

// decodeResult unmarshals the first text content of a successful result.
func decodeResult(t *testing.T, result *mcp.CallToolResult, dest interface{}) {
	t.Helper()
	require.False(t, result.IsError, "tool returned an error: %s", textOf(t, result))
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), dest))
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "first content is not TextContent")
	return tc.Text
}
