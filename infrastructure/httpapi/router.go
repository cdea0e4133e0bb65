// Package httpapi exposes the operator-facing HTTP surface: intent
// submission, audit query, and incident listing, routed with
// go-chi/chi and go-chi/cors the way sclaw's gateway wires its router.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/clawops/fleetctl/domain/audit"
	"github.com/clawops/fleetctl/domain/commander"
	"github.com/clawops/fleetctl/domain/health"
	"github.com/clawops/fleetctl/domain/incident"
	"github.com/clawops/fleetctl/domain/safety"
	"github.com/clawops/fleetctl/infrastructure/logging"
	"github.com/clawops/fleetctl/infrastructure/ratelimit"
)

// TelemetryRecorder stores the latest telemetry snapshot for an instance,
// consumed by the next sweep tick.
type TelemetryRecorder interface {
	RecordTelemetry(instanceID string, report health.Report)
}

// Deps are the components the API dispatches into.
type Deps struct {
	Chain     *audit.Chain
	Logger    *logging.Logger
	Incidents func() []*incident.Incident
	Telemetry TelemetryRecorder
	Limiter   *ratelimit.Limiter
	Rules     safety.Rules
}

// NewRouter builds the chi router for the operator API.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
	}))

	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/intent", handleIntent(deps.Chain, deps.Rules))
		r.Get("/audit", handleAuditQuery(deps.Chain))
		r.Get("/audit/verify", handleAuditVerify(deps.Chain))
		r.Get("/incidents", handleIncidentList(deps.Incidents))
		r.Post("/telemetry/{instance_id}", handleTelemetry(deps.Telemetry, deps.Limiter))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type intentRequest struct {
	Text      string `json:"text"`
	Confirmed bool   `json:"confirmed"`
}

type intentResponse struct {
	Kind            commander.IntentKind `json:"kind"`
	Target          commander.Target     `json:"target"`
	Acknowledgement string               `json:"acknowledgement"`
	GateOutcome     safety.Outcome       `json:"gate_outcome"`
	GateReason      string               `json:"gate_reason,omitempty"`
	Dispatched      bool                 `json:"dispatched"`
}

// handleIntent runs the Commander's full compose-and-dispatch
// transaction: classify, route, evaluate the Safety Gate, audit a
// destructive decision, and report whether the intent cleared.
func handleIntent(chain *audit.Chain, rules safety.Rules) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req intentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		var recorder commander.AuditRecorder
		if chain != nil {
			recorder = chain
		}
		result := commander.Dispatch(r.Context(), req.Text, req.Confirmed, rules, recorder)

		status := http.StatusOK
		if result.GateOutcome == safety.OutcomeBlocked {
			status = http.StatusForbidden
		} else if result.GateOutcome == safety.OutcomeRequiresConfirmation {
			status = http.StatusAccepted
		}

		writeJSON(w, status, intentResponse{
			Kind:            result.Intent.Kind,
			Target:          result.Target,
			Acknowledgement: result.Acknowledgement,
			GateOutcome:     result.GateOutcome,
			GateReason:      result.GateReason,
			Dispatched:      result.Cleared,
		})
	}
}

func handleAuditQuery(chain *audit.Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if chain == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "audit chain not configured"})
			return
		}
		q := r.URL.Query()
		filter := audit.QueryFilter{
			AccountID:  q.Get("account_id"),
			InstanceID: q.Get("instance_id"),
			Agent:      q.Get("agent"),
			Action:     q.Get("action"),
		}
		records := chain.Query(filter)
		writeJSON(w, http.StatusOK, records)
	}
}

func handleAuditVerify(chain *audit.Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if chain == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "audit chain not configured"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"valid": chain.VerifyChain()})
	}
}

func handleIncidentList(list func() []*incident.Incident) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if list == nil {
			writeJSON(w, http.StatusOK, []incident.Report{})
			return
		}
		reports := make([]incident.Report, 0)
		for _, inc := range list() {
			reports = append(reports, inc.GenerateReport())
		}
		writeJSON(w, http.StatusOK, reports)
	}
}

func handleTelemetry(recorder TelemetryRecorder, limiter *ratelimit.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		instanceID := chi.URLParam(r, "instance_id")
		if instanceID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "instance_id is required"})
			return
		}
		if limiter != nil {
			if err := limiter.Allow(instanceID); err != nil {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": err.Error()})
				return
			}
		}

		var report health.Report
		if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid telemetry payload"})
			return
		}
		report.InstanceID = instanceID

		if recorder != nil {
			recorder.RecordTelemetry(instanceID, report)
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
