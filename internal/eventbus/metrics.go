package eventbus

import (
	"time"

	"github.com/annel0/tile-match/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsExporter инкапсулирует Prometheus-метрики для EventBus и
// периодически обновляет их. Экспортер не делает предположений о
// конкретной реализации шины — он опирается только на интерфейс EventBus.
type MetricsExporter struct {
	bus  EventBus
	quit chan struct{}
	done chan struct{}
	// Prometheus metrics
	published prometheus.Counter
	consumed  prometheus.Counter
	dropped   prometheus.Counter
	inflight  prometheus.Gauge

	lastStats Stats
}

// NewMetricsExporter создаёт экспортер и регистрирует метрики в
// дефолтном регистре.
func NewMetricsExporter(bus EventBus) *MetricsExporter {
	me := &MetricsExporter{
		bus:  bus,
		quit: make(chan struct{}),
		done: make(chan struct{}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_published_total",
			Help:      "Общее число опубликованных событий.",
		}),
		consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_consumed_total",
			Help:      "Общее число доставленных событий подписчикам.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_dropped_total",
			Help:      "Событий, отброшенных из-за ошибок или ограничения back-pressure.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventbus",
			Name:      "messages_inflight",
			Help:      "Количество событий в очереди (не доставленных).",
		}),
	}

	prometheus.MustRegister(me.published, me.consumed, me.dropped, me.inflight)
	return me
}

// Start запускает периодическое обновление метрик.
func (me *MetricsExporter) Start(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	go func() {
		defer close(me.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				me.update()
			case <-me.quit:
				return
			}
		}
	}()
	logging.Debug("Экспортер метрик EventBus запущен (интервал %s)", interval)
}

// Stop останавливает обновление метрик.
func (me *MetricsExporter) Stop() {
	close(me.quit)
	<-me.done
}

// update переносит дельты счётчиков шины в Prometheus.
func (me *MetricsExporter) update() {
	stats := me.bus.Metrics()
	me.published.Add(float64(stats.Published - me.lastStats.Published))
	me.consumed.Add(float64(stats.Consumed - me.lastStats.Consumed))
	me.dropped.Add(float64(stats.Dropped - me.lastStats.Dropped))
	me.inflight.Set(float64(stats.InFlight))
	me.lastStats = stats
}
