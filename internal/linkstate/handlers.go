package linkstate

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/HerbHall/netswitch/internal/command"
	"github.com/HerbHall/netswitch/internal/plugin"
	"github.com/HerbHall/netswitch/internal/reconcile"
	"github.com/HerbHall/netswitch/internal/server"
	"github.com/HerbHall/netswitch/pkg/models"
)

// Routes returns the module's HTTP routes, mounted under /api/v1/linkstate.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/interfaces", Handler: m.handleInterfaces},
		{Method: "POST", Path: "/refresh", Handler: m.handleRefresh},
		{Method: "POST", Path: "/interfaces/{name}/admin", Handler: m.handleAdmin},
		{Method: "POST", Path: "/interfaces/{name}/connection", Handler: m.handleConnection},
		{Method: "GET", Path: "/stream", Handler: m.handleStream},
	}
}

// interfaceView is one table row plus its reconciliation state.
type interfaceView struct {
	models.InterfaceRecord
	State reconcile.InterfaceState `json:"state"`
}

type interfacesResponse struct {
	Mode        reconcile.Mode        `json:"mode"`
	Interfaces  []interfaceView       `json:"interfaces"`
	Polling     []reconcile.PollEntry `json:"polling"`
	Deferred    bool                  `json:"deferred"`
	LastError   string                `json:"last_error,omitempty"`
	LastSettled *time.Time            `json:"last_settled,omitempty"`
}

func newInterfacesResponse(st reconcile.Status) interfacesResponse {
	resp := interfacesResponse{
		Mode:       st.Mode,
		Interfaces: make([]interfaceView, 0, len(st.Interfaces)),
		Polling:    st.Polling,
		Deferred:   st.Deferred,
		LastError:  st.LastError,
	}
	if resp.Polling == nil {
		resp.Polling = []reconcile.PollEntry{}
	}
	if !st.LastSettled.IsZero() {
		t := st.LastSettled
		resp.LastSettled = &t
	}
	for _, rec := range st.Interfaces {
		resp.Interfaces = append(resp.Interfaces, interfaceView{InterfaceRecord: rec, State: st.StateOf(rec.Name)})
	}
	return resp
}

func (m *Module) handleInterfaces(w http.ResponseWriter, r *http.Request) {
	st, err := m.Snapshot(r.Context())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newInterfacesResponse(st))
}

func (m *Module) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if m.limiter != nil && !m.limiter.Allow() {
		server.RateLimited(w, "manual refresh requested too often", r.URL.Path)
		return
	}
	if err := m.Refresh(); err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh requested"})
}

type adminRequest struct {
	Enable *bool `json:"enable"`
}

func (m *Module) handleAdmin(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var req adminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enable == nil {
		server.BadRequest(w, `body must be {"enable": true|false}`, r.URL.Path)
		return
	}
	if err := m.SetAdminState(r.Context(), name, *req.Enable); err != nil {
		writeCommandError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":    "applied",
		"op":        adminOp(*req.Enable),
		"interface": name,
	})
}

type connectionRequest struct {
	Connect *bool  `json:"connect"`
	Profile string `json:"profile"`
}

func (m *Module) handleConnection(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var req connectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Connect == nil {
		server.BadRequest(w, `body must be {"connect": true|false, "profile": "..."}`, r.URL.Path)
		return
	}
	if err := m.SetConnectionState(r.Context(), name, req.Profile, *req.Connect); err != nil {
		writeCommandError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":    "applied",
		"op":        connectionOp(*req.Connect),
		"interface": name,
	})
}

func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotStarted), errors.Is(err, reconcile.ErrStopped):
		server.Unavailable(w, err.Error(), r.URL.Path)
	default:
		server.InternalError(w, err.Error(), r.URL.Path)
	}
}

func writeCommandError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, command.ErrProfileRequired) {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	if errors.Is(err, ErrNotStarted) {
		server.Unavailable(w, err.Error(), r.URL.Path)
		return
	}
	switch command.KindOf(err) {
	case command.KindNotFound:
		server.NotFound(w, err.Error(), r.URL.Path)
	case command.KindElevationDenied:
		server.Forbidden(w, err.Error(), r.URL.Path)
	case command.KindUnsupported:
		server.Unsupported(w, err.Error(), r.URL.Path)
	case command.KindNonZeroExit, command.KindProcessFailedToStart:
		server.CommandFailed(w, err.Error(), r.URL.Path)
	default:
		server.InternalError(w, err.Error(), r.URL.Path)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
