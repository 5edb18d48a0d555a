package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveLookup(t *testing.T) {
	before := testutil.ToFloat64(LookupsTotal.WithLabelValues("success"))
	ObserveLookup("success", 120*time.Millisecond)
	after := testutil.ToFloat64(LookupsTotal.WithLabelValues("success"))

	if after-before != 1 {
		t.Errorf("expected success counter to grow by 1, grew by %v", after-before)
	}
}

func TestServerStop(t *testing.T) {
	var nilServer *Server
	if err := nilServer.Stop(context.Background()); err != nil {
		t.Errorf("Stop() on nil server should be a no-op, got %v", err)
	}

	s := Start(0, nil)
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
