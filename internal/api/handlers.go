package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"roamcost/internal/engine"
	"roamcost/internal/metrics"
	"roamcost/internal/model"
	"roamcost/internal/store"
)

// resolveProfile fills an empty usage profile from the user's stored one.
// An explicit profile in the request always wins.
func (s *Server) resolveProfile(ctx context.Context, req *engine.SimulationRequest) {
	if !req.Profile.IsZero() || req.UserID == 0 {
		return
	}
	if sp, err := s.Store.GetUsageProfile(ctx, req.UserID); err == nil {
		req.Profile = sp.Profile
	}
}

// rankWeights returns the stored admin override, or the defaults.
func (s *Server) rankWeights(ctx context.Context) engine.RankWeights {
	if cfg, err := s.Store.GetRankerConfig(ctx); err == nil && cfg != nil {
		return *cfg
	}
	return engine.DefaultRankWeights()
}

// SimulateHandler handles POST /v1/simulate
func (s *Server) SimulateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.allowRequest(w, r) {
		return
	}
	var req engine.SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateSimulationRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid simulation request", err.Error(), r.URL.Path)
		return
	}
	s.resolveProfile(r.Context(), &req)
	snap, err := s.Catalog.Snapshot()
	if err != nil {
		metrics.Simulations.WithLabelValues("simulate", "unavailable").Inc()
		writeProblem(w, http.StatusServiceUnavailable, "Catalog unavailable", err.Error(), r.URL.Path)
		return
	}
	res, err := engine.Simulate(snap, req)
	if err != nil {
		metrics.Simulations.WithLabelValues("simulate", "error").Inc()
		writeProblem(w, http.StatusServiceUnavailable, "Simulation failed", err.Error(), r.URL.Path)
		return
	}
	metrics.Simulations.WithLabelValues("simulate", "ok").Inc()
	metrics.SimulationOptions.Observe(float64(len(res.Options)))
	writeJSON(w, http.StatusOK, res)
}

// RecommendationHandler handles POST /v1/recommendation
func (s *Server) RecommendationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.allowRequest(w, r) {
		return
	}
	var req engine.SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateSimulationRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid simulation request", err.Error(), r.URL.Path)
		return
	}
	s.resolveProfile(r.Context(), &req)
	snap, err := s.Catalog.Snapshot()
	if err != nil {
		metrics.Simulations.WithLabelValues("recommend", "unavailable").Inc()
		writeProblem(w, http.StatusServiceUnavailable, "Catalog unavailable", err.Error(), r.URL.Path)
		return
	}
	rec, warnings, err := engine.Recommend(snap, req, s.rankWeights(r.Context()))
	if err != nil {
		metrics.Simulations.WithLabelValues("recommend", "error").Inc()
		writeProblem(w, http.StatusServiceUnavailable, "Recommendation failed", err.Error(), r.URL.Path)
		return
	}
	if warnings == nil {
		warnings = []string{}
	}
	metrics.Simulations.WithLabelValues("recommend", "ok").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"recommendation": rec, "warnings": warnings})
}

// CatalogHandler handles GET /v1/catalog
func (s *Server) CatalogHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	snap, err := s.Catalog.Snapshot()
	if err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Catalog unavailable", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"countries": snap.Countries(),
		"rates":     snap.Rates(),
		"packs":     snap.Packs(),
	})
}

// CheckoutHandler handles POST /v1/checkout. Checkout is mocked: the order is
// stored as confirmed without touching any payment provider.
func (s *Server) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		UserID         int64           `json:"userId"`
		SelectedOption string          `json:"selectedOption"`
		TotalCost      decimal.Decimal `json:"totalCost"`
		Currency       string          `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if req.SelectedOption == "" {
		writeProblem(w, http.StatusBadRequest, "Missing selectedOption", "", r.URL.Path)
		return
	}
	if req.TotalCost.IsNegative() {
		writeProblem(w, http.StatusBadRequest, "Invalid totalCost", "must be >= 0", r.URL.Path)
		return
	}
	order, err := s.Store.CreateOrder(r.Context(), model.Order{
		UserID:         req.UserID,
		SelectedOption: req.SelectedOption,
		TotalCost:      req.TotalCost,
		Currency:       req.Currency,
		Status:         "confirmed",
	})
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Create order failed", err.Error(), r.URL.Path)
		return
	}
	data := map[string]any{
		"orderId":        order.ID,
		"userId":         order.UserID,
		"selectedOption": order.SelectedOption,
		"totalCost":      order.TotalCost.String(),
		"currency":       order.Currency,
		"ts":             order.CreatedAt,
	}
	s.Pub.Emit(r.Context(), "order.created", data)
	s.Broker.Publish(strconv.FormatInt(order.UserID, 10), Event{Type: "order.created", Data: data})
	writeJSON(w, http.StatusCreated, order)
}

// TripsHandler handles POST/GET /v1/trips
func (s *Server) TripsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var t model.Trip
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if t.CountryCode == "" || t.StartDate == "" || t.EndDate == "" {
			writeProblem(w, http.StatusBadRequest, "Invalid trip", "countryCode, startDate and endDate are required", r.URL.Path)
			return
		}
		created, err := s.Store.CreateTrip(r.Context(), t)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create trip failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	case http.MethodGet:
		items, err := s.Store.ListTrips(r.Context())
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List trips failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// TripsByUserHandler handles GET /v1/trips/user/{id}
func (s *Server) TripsByUserHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/trips/user/")
	if rest == r.URL.Path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing user id", r.URL.Path)
		return
	}
	userID, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid user id", err.Error(), r.URL.Path)
		return
	}
	items, err := s.Store.ListTripsByUser(r.Context(), userID)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List trips failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// UsersHandler handles /v1/users/{id}, /v1/users/{id}/profile, and the SSE
// stream at /v1/users/{id}/events/stream.
func (s *Server) UsersHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	if rest == r.URL.Path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing user id", r.URL.Path)
		return
	}
	parts := strings.Split(rest, "/")
	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid user id", err.Error(), r.URL.Path)
		return
	}

	if len(parts) >= 3 && parts[1] == "events" && parts[2] == "stream" {
		s.userEventsStream(w, r, parts[0])
		return
	}

	if len(parts) == 2 && parts[1] == "profile" {
		switch r.Method {
		case http.MethodGet:
			sp, err := s.Store.GetUsageProfile(r.Context(), userID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeProblem(w, http.StatusNotFound, "Profile not found", "", r.URL.Path)
					return
				}
				writeProblem(w, http.StatusInternalServerError, "Get profile failed", err.Error(), r.URL.Path)
				return
			}
			writeJSON(w, http.StatusOK, sp)
		case http.MethodPut:
			var p model.UsageProfile
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
				return
			}
			if p.AvgDailyMB < 0 || p.AvgDailyMin < 0 || p.AvgDailySMS < 0 {
				writeProblem(w, http.StatusBadRequest, "Invalid profile", "values must be >= 0", r.URL.Path)
				return
			}
			sp := model.StoredProfile{UserID: userID, Profile: p}
			if err := s.Store.PutUsageProfile(r.Context(), sp); err != nil {
				writeProblem(w, http.StatusInternalServerError, "Save profile failed", err.Error(), r.URL.Path)
				return
			}
			writeJSON(w, http.StatusOK, sp)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		u, err := s.Store.GetUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeProblem(w, http.StatusNotFound, "User not found", "", r.URL.Path)
				return
			}
			writeProblem(w, http.StatusInternalServerError, "Get user failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, u)
		return
	}
	writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
}

// userEventsStream pushes a user's order events plus catalog reloads over SSE.
func (s *Server) userEventsStream(w http.ResponseWriter, r *http.Request, userTopic string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	userCh := s.Broker.Subscribe(userTopic)
	catalogCh := s.Broker.Subscribe("catalog")
	defer s.Broker.Unsubscribe(userTopic, userCh)
	defer s.Broker.Unsubscribe("catalog", catalogCh)

	heartbeat := func() {
		fmt.Fprintf(w, "event: heartbeat\n")
		fmt.Fprintf(w, "data: {\"userId\":\"%s\",\"ts\":\"%s\"}\n\n", userTopic, time.Now().Format(time.RFC3339))
		flusher.Flush()
	}
	send := func(evt Event) {
		b, _ := json.Marshal(evt.Data)
		fmt.Fprintf(w, "event: %s\n", evt.Type)
		fmt.Fprintf(w, "data: %s\n\n", string(b))
		flusher.Flush()
	}

	heartbeat()
	notify := r.Context().Done()
	for {
		select {
		case <-notify:
			return
		case evt := <-userCh:
			send(evt)
		case evt := <-catalogCh:
			send(evt)
		case <-time.After(15 * time.Second):
			heartbeat()
		}
	}
}

// SubscriptionsHandler handles POST/GET /v1/subscriptions
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req model.Subscription
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if req.URL == "" || len(req.Events) == 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid subscription", "url and events are required", r.URL.Path)
			return
		}
		sub, err := s.Store.CreateSubscription(r.Context(), req)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	case http.MethodGet:
		items, err := s.Store.ListSubscriptions(r.Context())
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List subscriptions failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SubscriptionByIDHandler handles DELETE /v1/subscriptions/{id}
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/v1/subscriptions/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
	if err := s.Store.DeleteSubscription(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Subscription not found", "", r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Delete subscription failed", err.Error(), r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminRankerConfigHandler handles GET/PUT /v1/admin/ranker/config
func (s *Server) AdminRankerConfigHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/admin/ranker/config" {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"config": s.rankWeights(r.Context()), "defaults": engine.DefaultRankWeights()})
	case http.MethodPut:
		var body struct {
			Config *engine.RankWeights `json:"config"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if body.Config == nil {
			writeProblem(w, http.StatusBadRequest, "Missing config", "", r.URL.Path)
			return
		}
		if body.Config.Coverage < 0 || body.Config.Validity < 0 || body.Config.PackBias < 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid config", "weights must be >= 0", r.URL.Path)
			return
		}
		if err := s.Store.SaveRankerConfig(r.Context(), *body.Config); err != nil {
			writeProblem(w, http.StatusInternalServerError, "Save failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler reports readiness: a loaded catalog snapshot, and DB
// connectivity when backed by Postgres.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Catalog.Snapshot(); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Not Ready", "catalog not loaded", r.URL.Path)
		return
	}
	type pinger interface{ Ping(ctx context.Context) error }
	if pg, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
