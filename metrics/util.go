package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// registerOnce registers c, or returns the identical collector registered
// earlier. Any other registration failure panics.
func registerOnce[C prometheus.Collector](c C) C {
	if err := prometheus.Register(c); err != nil {
		are := prometheus.AlreadyRegisteredError{}
		if errors.As(err, &are) {
			return are.ExistingCollector.(C)
		}
		panic(err)
	}
	return c
}
