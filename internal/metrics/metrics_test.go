package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
)

func TestObserveOutcomes(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.Observe("cast_vote", time.Now(), nil)
	m.Observe("cast_vote", time.Now(), domain.ErrPollNotFound)
	m.Observe("cast_vote", time.Now(), errors.New("disk on fire"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("cast_vote", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("cast_vote", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("cast_vote", "internal")))
}

func TestTransition(t *testing.T) {
	m := New("test", prometheus.NewRegistry())
	m.Transition(domain.TransitionChanged)
	m.Transition(domain.TransitionChanged)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("changed")))
}
