package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/payplan/internal/allocation"
	"github.com/theirongolddev/payplan/internal/model"
	"github.com/theirongolddev/payplan/internal/pipeline"
	"github.com/theirongolddev/payplan/internal/session"
)

// Row is the wire form of one obligation.
type Row struct {
	ID         string            `json:"id"`
	Liability  decimal.Decimal   `json:"liability"`
	Amount     int64             `json:"amount"`
	Locked     bool              `json:"locked,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// State is the session as served to clients.
type State struct {
	ID            string    `json:"id"`
	Label         string    `json:"label"`
	Version       int64     `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	Columns       []string  `json:"columns"`
	Rows          []Row     `json:"rows"`
	Budget        int64     `json:"budget"`
	Total         int64     `json:"total"`
	Remaining     int64     `json:"remaining"`
	LockedRows    int       `json:"locked_rows"`
	Warning       string    `json:"warning,omitempty"`
	OverAllocated bool      `json:"over_allocated"`
}

// Group is one entry of GET /v1/sessions/{id}/groups.
type Group struct {
	Value       string          `json:"value"`
	Members     []string        `json:"members"`
	Amount      int64           `json:"amount"`
	Liability   decimal.Decimal `json:"liability"`
	LockedCount int             `json:"locked_count"`
}

type createRequest struct {
	Label   string   `json:"label"`
	Budget  int64    `json:"budget"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

type actionResponse struct {
	State  State  `json:"state"`
	Locked *bool  `json:"locked,omitempty"`
	Error  string `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// badRequest marks a body the handler could not decode. The session is not
// touched.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }

// state builds the wire view. Callers hold e.mu.
func (e *entry) state() State {
	snap := e.sess.Snapshot()
	sum := pipeline.Summarize(snap.Set, snap.Locks, snap.Budget)

	rows := make([]Row, len(snap.Set.Obligations))
	for i, o := range snap.Set.Obligations {
		rows[i] = Row{
			ID:         o.ID,
			Liability:  o.RemainingLiability,
			Amount:     o.AllocatedAmount,
			Locked:     snap.Locks.Has(o.ID),
			Attributes: o.Attributes,
		}
	}
	cols := snap.Set.Columns
	if cols == nil {
		cols = []string{}
	}
	return State{
		ID:            e.id,
		Label:         snap.Label,
		Version:       e.version,
		CreatedAt:     e.created,
		Columns:       cols,
		Rows:          rows,
		Budget:        snap.Budget,
		Total:         snap.Total,
		Remaining:     sum.Remaining,
		LockedRows:    sum.LockedRows,
		Warning:       snap.Warning,
		OverAllocated: snap.OverAllocated,
	}
}

// toSet validates the request rows. Missing ids number rows 1..N; columns
// default to the attribute keys in first-seen order, sorted within a row.
func (req createRequest) toSet() (model.AllocationSet, error) {
	set := model.AllocationSet{
		Columns:     append([]string(nil), req.Columns...),
		Obligations: make([]model.Obligation, 0, len(req.Rows)),
	}
	seen := make(map[string]bool, len(req.Rows))
	known := make(map[string]bool, len(req.Columns))
	for _, c := range req.Columns {
		known[c] = true
	}

	for i, r := range req.Rows {
		id := r.ID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		if seen[id] {
			return set, &allocation.ValidationError{Msg: fmt.Sprintf("duplicate id %q", id)}
		}
		seen[id] = true
		if r.Liability.IsNegative() {
			return set, &allocation.ValidationError{Msg: fmt.Sprintf("row %s: negative liability", id)}
		}
		if r.Amount < 0 {
			return set, &allocation.ValidationError{Msg: fmt.Sprintf("row %s: negative amount", id)}
		}

		if len(req.Columns) == 0 {
			keys := make([]string, 0, len(r.Attributes))
			for k := range r.Attributes {
				if !known[k] {
					keys = append(keys, k)
				}
			}
			sort.Strings(keys)
			for _, k := range keys {
				known[k] = true
				set.Columns = append(set.Columns, k)
			}
		}

		set.Obligations = append(set.Obligations, model.Obligation{
			ID:                 id,
			RemainingLiability: r.Liability,
			Attributes:         r.Attributes,
			AllocatedAmount:    r.Amount,
		}.Clone())
	}
	return set, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(r, &req); err != nil {
		s.metrics.action("create", outcomeBadRequest)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Budget < 0 {
		s.metrics.action("create", outcomeRejected)
		writeError(w, http.StatusUnprocessableEntity, errors.New("negative budget"))
		return
	}
	set, err := req.toSet()
	if err != nil {
		s.metrics.action("create", outcomeRejected)
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	sess := session.New(req.Budget)
	sess.Load(set, req.Label)

	e, err := s.add(sess)
	if err != nil {
		s.metrics.action("create", outcomeRejected)
		writeError(w, http.StatusTooManyRequests, err)
		return
	}

	e.mu.Lock()
	if sess.OverAllocated() {
		s.metrics.overBudget.Inc()
	}
	ev := e.publish(Event{Type: "snapshot", Timestamp: time.Now(), State: e.state()}, s.cfg.EventsBuffer)
	e.mu.Unlock()

	s.metrics.action("create", outcomeOK)
	s.log.Info("session created", "session_id", e.id, "label", req.Label, "rows", set.Len(), "budget", req.Budget)
	writeJSON(w, http.StatusCreated, actionResponse{State: ev.State})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	st := e.state()
	e.mu.Unlock()
	writeJSON(w, http.StatusOK, actionResponse{State: st})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.remove(id); !ok {
		s.metrics.action("delete", outcomeNotFound)
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	s.metrics.action("delete", outcomeOK)
	s.log.Info("session deleted", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	key := r.URL.Query().Get("key")

	e.mu.Lock()
	set := e.sess.View()
	if key == "" && len(set.Columns) > 0 {
		key = set.Columns[0]
	}
	stats := pipeline.GroupTotals(set, e.sess.Locks(), key)
	e.mu.Unlock()

	groups := make([]Group, len(stats))
	for i, g := range stats {
		groups[i] = Group{
			Value:       g.Value,
			Members:     g.Members,
			Amount:      g.Amount,
			Liability:   g.Liability,
			LockedCount: g.LockedCount,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "groups": groups})
}

// actionFunc applies one user action. A non-nil bool is reported back as the
// resulting lock state.
type actionFunc func(r *http.Request, sess *session.Session) (*bool, error)

// act wraps an action with lookup, locking, metrics, logging and the event
// feed.
func (s *Server) act(name string, fn actionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := s.lookup(chi.URLParam(r, "id"))
		if !ok {
			s.metrics.action(name, outcomeNotFound)
			writeError(w, http.StatusNotFound, errors.New("session not found"))
			return
		}

		e.mu.Lock()
		if e.closed() {
			e.mu.Unlock()
			s.metrics.action(name, outcomeNotFound)
			writeError(w, http.StatusNotFound, errors.New("session not found"))
			return
		}
		before := e.sess.OverAllocated()
		locked, err := fn(r, e.sess)

		var br badRequest
		if errors.As(err, &br) {
			e.mu.Unlock()
			s.metrics.action(name, outcomeBadRequest)
			writeError(w, http.StatusBadRequest, err)
			return
		}

		outcome := outcomeOK
		if err != nil {
			outcome = outcomeRejected
		}
		e.version++
		s.metrics.overBudgetChanged(before, e.sess.OverAllocated())
		ev := e.publish(Event{
			Type:      "action",
			Action:    name,
			Outcome:   outcome,
			Timestamp: time.Now(),
			State:     e.state(),
		}, s.cfg.EventsBuffer)
		e.mu.Unlock()

		s.metrics.action(name, outcome)
		resp := actionResponse{State: ev.State, Locked: locked}
		if err != nil {
			resp.Error = err.Error()
			if allocation.IsValidation(err) {
				s.log.Info("action rejected", "session_id", e.id, "action", name, "error", err)
				writeJSON(w, http.StatusUnprocessableEntity, resp)
				return
			}
			s.log.Error("action failed", "session_id", e.id, "action", name, "error", err)
			writeJSON(w, http.StatusInternalServerError, resp)
			return
		}
		s.log.Debug("action applied", "session_id", e.id, "action", name, "total", ev.State.Total)
		writeJSON(w, http.StatusOK, resp)
	}
}

func setBudget(r *http.Request, sess *session.Session) (*bool, error) {
	var body struct {
		Budget *int64 `json:"budget"`
	}
	if err := decode(r, &body); err != nil {
		return nil, err
	}
	if body.Budget == nil {
		return nil, badRequest{errors.New("budget is required")}
	}
	return nil, sess.SetBudget(*body.Budget)
}

func toggleLock(r *http.Request, sess *session.Session) (*bool, error) {
	locked, err := sess.ToggleLock(chi.URLParam(r, "rowID"))
	if err != nil {
		return nil, err
	}
	return &locked, nil
}

func selectAll(_ *http.Request, sess *session.Session) (*bool, error) {
	locked := sess.SelectAll()
	return &locked, nil
}

func selectGroup(r *http.Request, sess *session.Session) (*bool, error) {
	var body struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := decode(r, &body); err != nil {
		return nil, err
	}
	if body.Key == "" {
		return nil, badRequest{errors.New("key is required")}
	}
	locked := sess.SelectAllInGroup(body.Key, body.Value)
	return &locked, nil
}

func distribute(_ *http.Request, sess *session.Session) (*bool, error) {
	sess.RequestInitialDistribution()
	return nil, nil
}

func redistribute(_ *http.Request, sess *session.Session) (*bool, error) {
	sess.RequestRedistribution()
	return nil, nil
}

func editCell(r *http.Request, sess *session.Session) (*bool, error) {
	var body struct {
		Amount *int64 `json:"amount"`
	}
	if err := decode(r, &body); err != nil {
		return nil, err
	}
	if body.Amount == nil {
		return nil, badRequest{errors.New("amount is required")}
	}
	return nil, sess.EditCell(chi.URLParam(r, "rowID"), *body.Amount)
}

func editGroup(r *http.Request, sess *session.Session) (*bool, error) {
	var body struct {
		Key   string `json:"key"`
		Value string `json:"value"`
		Total *int64 `json:"total"`
	}
	if err := decode(r, &body); err != nil {
		return nil, err
	}
	if body.Key == "" || body.Total == nil {
		return nil, badRequest{errors.New("key and total are required")}
	}
	return nil, sess.EditGroupTotal(body.Key, body.Value, *body.Total)
}

func reset(_ *http.Request, sess *session.Session) (*bool, error) {
	sess.ResetToOriginal()
	return nil, nil
}

func (s *Server) entryFor(w http.ResponseWriter, r *http.Request) (*entry, bool) {
	e, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
	}
	return e, ok
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest{fmt.Errorf("decoding body: %w", err)}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
