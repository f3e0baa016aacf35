package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"benefits-assistant/internal/common/errors"
	"benefits-assistant/internal/common/logger"
	"benefits-assistant/internal/common/metrics"
	"benefits-assistant/internal/dataset"
	"benefits-assistant/internal/ledger"
	"benefits-assistant/internal/matcher"
	"benefits-assistant/internal/models"
)

// Fallback forwards a request payload to the delegated assistant and
// returns its response body verbatim.
type Fallback interface {
	Invoke(ctx context.Context, payload []byte) (json.RawMessage, error)
}

// Summarizer condenses multi-plan lookup results into a short
// comparison text.
type Summarizer interface {
	Summarize(ctx context.Context, results []models.PlanResult) (string, error)
}

// Envelope is a transport-agnostic response: the HTTP layer writes it
// out as-is, and tests assert on it without a network in the way.
type Envelope struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte

	// Decision is the classification label for this turn, for metrics.
	Decision string
}

// Router drives a chat turn end to end: classify the payload, record
// the user message, answer from the dataset or hand off, and record
// the assistant message.
type Router struct {
	dataset    *dataset.Dataset
	ledger     ledger.Store
	fallback   Fallback
	summarizer Summarizer
	logger     logger.Logger
}

func New(ds *dataset.Dataset, store ledger.Store, fb Fallback, sum Summarizer, log logger.Logger) *Router {
	return &Router{
		dataset:    ds,
		ledger:     store,
		fallback:   fb,
		summarizer: sum,
		logger:     log,
	}
}

type lookupResponse struct {
	Results []models.PlanResult `json:"results"`
}

type summaryResponse struct {
	Summary *string             `json:"summary"`
	Results []models.PlanResult `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handle processes one chat turn. Rejections happen before any ledger
// write; accepted requests are bracketed by a user entry before
// dispatch and an assistant entry after a successful response.
func (r *Router) Handle(ctx context.Context, sessionID string, body []byte) Envelope {
	start := time.Now()

	if strings.TrimSpace(sessionID) == "" {
		metrics.ChatRequests.WithLabelValues("rejected").Inc()
		env := jsonEnvelope(http.StatusBadRequest, errorResponse{Error: errors.NewSessionIDMissingError().Message})
		env.Decision = "rejected"
		return env
	}

	if len(bytes.TrimSpace(body)) == 0 {
		metrics.ChatRequests.WithLabelValues("rejected").Inc()
		env := jsonEnvelope(http.StatusBadRequest, errorResponse{Error: errors.NewEmptyRequestError().Message})
		env.Decision = "rejected"
		return env
	}

	decision := Classify(body)
	metrics.ChatRequests.WithLabelValues(string(decision.Kind)).Inc()
	defer func() {
		metrics.RequestDuration.WithLabelValues(string(decision.Kind)).Observe(time.Since(start).Seconds())
	}()

	var env Envelope
	switch decision.Kind {
	case DecisionMalformed:
		env = jsonEnvelope(http.StatusBadRequest, errorResponse{Error: decision.Reason})
	case DecisionFreeForm:
		env = r.handleFreeForm(ctx, sessionID, body, decision.Text)
	default:
		env = r.handleLookup(ctx, sessionID, body, decision)
	}
	env.Decision = string(decision.Kind)
	return env
}

func (r *Router) handleFreeForm(ctx context.Context, sessionID string, body []byte, text string) Envelope {
	r.appendMessage(ctx, sessionID, models.RoleUser, text)
	return r.delegate(ctx, sessionID, body, "free_form")
}

func (r *Router) handleLookup(ctx context.Context, sessionID string, body []byte, decision Decision) Envelope {
	lookup := decision.Lookup

	userText := decision.Text
	if userText == "" {
		userText = fmt.Sprintf("benefit lookup: %s", lookup.Condition)
	}
	r.appendMessage(ctx, sessionID, models.RoleUser, userText)

	results := make([]models.PlanResult, 0, len(lookup.Plans))
	for _, plan := range lookup.Plans {
		outcome := matcher.FindPlanValue(lookup.Condition, plan, r.dataset)
		metrics.LookupOutcomes.WithLabelValues(string(outcome.Status)).Inc()
		if outcome.Status != matcher.StatusFound {
			r.logger.Info("lookup missed, delegating to fallback", map[string]interface{}{
				"session_id": sessionID,
				"condition":  lookup.Condition,
				"plan":       plan,
				"status":     string(outcome.Status),
			})
			return r.delegate(ctx, sessionID, body, "lookup_miss")
		}
		results = append(results, models.PlanResult{Plan: plan, Data: outcome.Records})
	}

	var payload interface{}
	if len(lookup.Plans) >= 2 {
		resp := summaryResponse{Results: results}
		if summary, err := r.summarizer.Summarize(ctx, results); err != nil {
			metrics.SummarizerFailures.Inc()
			r.logger.WithError(err).Warn("summarizer failed, returning results without summary", map[string]interface{}{
				"session_id": sessionID,
				"plans":      len(lookup.Plans),
			})
		} else {
			resp.Summary = &summary
		}
		payload = resp
	} else {
		payload = lookupResponse{Results: results}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		r.logger.WithError(err).Error("failed to encode lookup response", nil)
		return jsonEnvelope(http.StatusInternalServerError, errorResponse{Error: "failed to encode response"})
	}

	r.appendMessage(ctx, sessionID, models.RoleAssistant, string(encoded))
	return rawEnvelope(http.StatusOK, encoded)
}

// delegate forwards the original payload untouched and relays the
// delegated assistant's response verbatim. The assistant ledger entry
// is written only on success; a failed handoff surfaces as 502 with
// nothing recorded for the assistant turn.
func (r *Router) delegate(ctx context.Context, sessionID string, body []byte, trigger string) Envelope {
	resp, err := r.fallback.Invoke(ctx, body)
	if err != nil {
		metrics.FallbackInvocations.WithLabelValues(trigger, "error").Inc()
		r.logger.WithError(err).Error("fallback invocation failed", map[string]interface{}{
			"session_id": sessionID,
			"trigger":    trigger,
		})
		return jsonEnvelope(http.StatusBadGateway, errorResponse{Error: "assistant is temporarily unavailable"})
	}

	metrics.FallbackInvocations.WithLabelValues(trigger, "ok").Inc()
	r.appendMessage(ctx, sessionID, models.RoleAssistant, string(resp))
	return rawEnvelope(http.StatusOK, resp)
}

// appendMessage records a conversation turn. Ledger failures are
// logged and absorbed so a Redis hiccup cannot take down an otherwise
// answerable request.
func (r *Router) appendMessage(ctx context.Context, sessionID string, role models.Role, content string) {
	if _, err := r.ledger.Append(ctx, sessionID, role, content); err != nil {
		r.logger.WithError(err).Error("failed to record conversation turn", map[string]interface{}{
			"session_id": sessionID,
			"role":       string(role),
		})
	}
}

func jsonEnvelope(status int, v interface{}) Envelope {
	body, err := json.Marshal(v)
	if err != nil {
		body = []byte(`{"error":"internal error"}`)
		status = http.StatusInternalServerError
	}
	return rawEnvelope(status, body)
}

func rawEnvelope(status int, body []byte) Envelope {
	return Envelope{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: body,
	}
}
