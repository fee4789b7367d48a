package observability

import (
	"strings"
	"time"
)

// ObserveStore wraps one logical document-store operation with duration
// and error accounting.
func (p *Prom) ObserveStore(op, collection string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := "ok"

	if err != nil {
		status = "error"
		p.StoreErrors.WithLabelValues(op, collection, ClassifyStoreErr(err)).Inc()
	}
	p.StoreOpDuration.WithLabelValues(op, collection, status).Observe(time.Since(start).Seconds())
	return err
}

// ClassifyStoreErr keeps the label space small for dashboards.
func ClassifyStoreErr(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection"):
		return "connection"
	case strings.Contains(msg, "not found"):
		return "not_found"
	default:
		return "unknown"
	}
}
