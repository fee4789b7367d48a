package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestClassifyStoreErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: errors.New("context deadline exceeded"), want: "timeout"},
		{name: "timeout", err: errors.New("i/o timeout"), want: "timeout"},
		{name: "connection", err: errors.New("connection refused"), want: "connection"},
		{name: "not found", err: errors.New("document not found"), want: "not_found"},
		{name: "anything else", err: errors.New("boom"), want: "unknown"},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyStoreErr(tt.err); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestObserveStoreCountsClassifiedErrors(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	err := p.ObserveStore("get", "users", func() error {
		return errors.New("connection reset by peer")
	})

	if err == nil {
		t.Fatalf("ObserveStore must return the wrapped error")
	}

	got := testutil.ToFloat64(p.StoreErrors.WithLabelValues("get", "users", "connection"))

	if got != 1 {
		t.Fatalf("error counter for class connection got %v, want 1", got)
	}

	if err := p.ObserveStore("get", "users", func() error { return nil }); err != nil {
		t.Fatalf("ok path must pass the nil error through, got %v", err)
	}
}
