package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSessions(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.SessionsActive))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.SessionsTotal))
}

func TestObserveEvent(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveEvent("toggle_activity", time.Now(), nil)
	m.ObserveEvent("toggle_activity", time.Now(), errors.New("disabled"))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.EventsTotal.WithLabelValues("toggle_activity")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventErrors.WithLabelValues("toggle_activity")))
}

func TestObserveSubmit(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSubmit(false, []string{"activities", "payment"})
	m.ObserveSubmit(true, nil)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.SubmitsTotal.WithLabelValues("blocked")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SubmitsTotal.WithLabelValues("allowed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PanelValidations.WithLabelValues("payment")))
}

func TestEventDropped(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.EventDropped()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsDropped))
}
