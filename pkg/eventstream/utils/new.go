// Package eventstreamutils builds an eventstream.Publisher from configuration.
package eventstreamutils

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/winter/pkg/config"
	"github.com/papercomputeco/winter/pkg/eventstream"
	"github.com/papercomputeco/winter/pkg/eventstream/kafka"
	"github.com/papercomputeco/winter/pkg/eventstream/nop"
	"github.com/papercomputeco/winter/pkg/eventstream/worker"
)

// Provider names accepted in events.provider.
const (
	ProviderNop   = "nop"
	ProviderKafka = "kafka"
)

// NewPublisher returns the configured publisher. An empty provider selects
// nop. Broker backed publishers are fronted by a worker pool.
func NewPublisher(cfg config.EventsConfig, log *slog.Logger) (eventstream.Publisher, error) {
	switch cfg.Provider {
	case "", ProviderNop:
		return nop.NewPublisher(log), nil
	case ProviderKafka:
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: cfg.Brokers,
			Topic:   cfg.Topic,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		pool, err := worker.NewPool(&worker.Config{Publisher: p, Logger: log})
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("starting publish workers: %w", err)
		}
		return pool, nil
	default:
		return nil, fmt.Errorf("unsupported events provider: %s", cfg.Provider)
	}
}
