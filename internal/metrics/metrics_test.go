package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveSweep(t *testing.T) {
	okBefore := testutil.ToFloat64(sweepsTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(sweepsTotal.WithLabelValues("error"))

	ObserveSweep(4, nil, 20*time.Millisecond)
	ObserveSweep(0, errors.New("db down"), time.Millisecond)

	if got := testutil.ToFloat64(sweepsTotal.WithLabelValues("ok")) - okBefore; got != 1 {
		t.Errorf("ok sweeps = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sweepsTotal.WithLabelValues("error")) - errBefore; got != 1 {
		t.Errorf("error sweeps = %v, want 1", got)
	}
	if got := testutil.ToFloat64(duePosts); got != 4 {
		t.Errorf("due gauge = %v, want 4 (failed sweep must not reset it)", got)
	}
}

func TestObservePublishAndRequeue(t *testing.T) {
	before := testutil.ToFloat64(publishAttempts.WithLabelValues("retry"))
	ObservePublish("retry")
	if got := testutil.ToFloat64(publishAttempts.WithLabelValues("retry")) - before; got != 1 {
		t.Errorf("retry attempts = %v, want 1", got)
	}

	requeuedBefore := testutil.ToFloat64(requeuedTotal)
	ObserveRequeued(3)
	if got := testutil.ToFloat64(requeuedTotal) - requeuedBefore; got != 3 {
		t.Errorf("requeued = %v, want 3", got)
	}
}

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)
	Register(reg)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Error("no metric families registered")
	}
}
