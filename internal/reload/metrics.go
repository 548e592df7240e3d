package reload

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSent    = "sent"
	resultFailed  = "failed"
	resultSkipped = "skipped"
)

var requests = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Namespace: "bsreload",
		Name:      "reload_requests_total",
		Help:      "Reload requests by result: sent, failed (not dispatched) or skipped (revision/autosave).",
	},
	[]string{"result"},
)
