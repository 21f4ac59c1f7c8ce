package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bowling",
		Name:      "commands_total",
		Help:      "Commands handled by the router, by kind and outcome.",
	}, []string{"kind", "outcome"})

	commandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bowling",
		Name:      "command_duration_seconds",
		Help:      "Time spent handling a single command.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})

	duplicatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bowling",
		Name:      "duplicate_messages_total",
		Help:      "Deliveries rejected because the message id was already seen.",
	})

	gamesFinished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bowling",
		Name:      "games_finished_total",
		Help:      "Games that reached the finished state.",
	})
)

// ObserveCommand фиксирует результат и длительность обработки команды
func ObserveCommand(kind, outcome string, started time.Time) {
	commandsTotal.WithLabelValues(kind, outcome).Inc()
	commandDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

func DuplicateMessage() {
	duplicatesTotal.Inc()
}

func GameFinished() {
	gamesFinished.Inc()
}
