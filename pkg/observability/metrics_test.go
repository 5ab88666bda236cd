package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/plotline/pkg/domain"
	"github.com/aretw0/plotline/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnDecision(ctx, &domain.DecisionEvent{Plan: "hotel", Action: "utter_ask_city", Reason: "ask", Duration: time.Millisecond})
	hooks.OnDecision(ctx, &domain.DecisionEvent{Plan: "hotel", Action: "utter_ask_city", Reason: "ask"})
	hooks.OnDecision(ctx, &domain.DecisionEvent{Plan: "hotel", Err: errors.New("boom")})
	hooks.OnPlanActivated(ctx, &domain.PlanEvent{Plan: "hotel"})
	hooks.OnPlanDeactivated(ctx, &domain.PlanEvent{Plan: "hotel", Complete: true})
	hooks.OnActionExecuted(ctx, &domain.ActionEvent{Action: "utter_ask_city"})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Decisions.WithLabelValues("hotel", "ask")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecisionErrors.WithLabelValues("hotel")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Activations.WithLabelValues("hotel")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Deactivations.WithLabelValues("hotel", "complete")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Deactivations.WithLabelValues("hotel", "abandoned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actions.WithLabelValues("utter_ask_city")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.DecisionDuration))
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics()
	m.Hooks().OnPlanActivated(context.Background(), &domain.PlanEvent{Plan: "hotel"})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `plotline_plan_activations_total{plan="hotel"} 1`)
}

func TestNewMetricsWith_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetricsWith(reg, reg)
	require.NoError(t, err)

	_, err = observability.NewMetricsWith(reg, reg)
	assert.Error(t, err)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LoggingHooks(logger)
	ctx := context.Background()

	hooks.OnDecision(ctx, &domain.DecisionEvent{EventBase: domain.EventBase{SessionID: "s1"}, Plan: "hotel", Action: "utter_ask_city", Reason: "ask"})
	hooks.OnPlanDeactivated(ctx, &domain.PlanEvent{Plan: "hotel", Complete: true})

	out := buf.String()
	assert.True(t, strings.Contains(out, "action=utter_ask_city"), out)
	assert.True(t, strings.Contains(out, "complete=true"), out)
}

func TestHooks_Merge(t *testing.T) {
	m := observability.NewMetrics()
	var logged int
	hooks := m.Hooks().Merge(domain.LifecycleHooks{
		OnPlanActivated: func(context.Context, *domain.PlanEvent) { logged++ },
	})

	hooks.OnPlanActivated(context.Background(), &domain.PlanEvent{Plan: "hotel"})
	assert.Equal(t, 1, logged)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Activations.WithLabelValues("hotel")))
}
