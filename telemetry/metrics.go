package telemetry

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/colorfulnotion/avm/avm"
	"github.com/colorfulnotion/avm/avm/avmtypes"
	"github.com/colorfulnotion/avm/avm/program"
	"github.com/colorfulnotion/avm/log"
)

var _ avm.Observer = (*Metrics)(nil)

// Metrics counts executed instructions and finished frames. It is an
// avm.Observer and serves its own registry.
type Metrics struct {
	registry     *prometheus.Registry
	instructions *prometheus.CounterVec
	frames       *prometheus.CounterVec
	l2GasUsed    prometheus.Histogram
	daGasUsed    prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "avm",
			Name:      "instructions_total",
			Help:      "Instructions executed, by opcode.",
		}, []string{"opcode"}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "avm",
			Name:      "frames_total",
			Help:      "Finished call frames, by nesting and outcome.",
		}, []string{"nested", "reverted"}),
		l2GasUsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "avm",
			Name:      "frame_l2_gas_used",
			Help:      "L2 gas used per frame.",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 10),
		}),
		daGasUsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "avm",
			Name:      "frame_da_gas_used",
			Help:      "DA gas used per frame.",
			Buckets:   prometheus.ExponentialBuckets(512, 2, 10),
		}),
	}
	m.registry.MustRegister(m.instructions, m.frames, m.l2GasUsed, m.daGasUsed)
	return m
}

func (m *Metrics) InstructionExecuted(op program.Opcode) {
	m.instructions.WithLabelValues(op.String()).Inc()
}

func (m *Metrics) CallFinished(depth int, reverted bool, gasUsed avmtypes.Gas) {
	m.frames.WithLabelValues(strconv.FormatBool(depth > 0), strconv.FormatBool(reverted)).Inc()
	m.l2GasUsed.Observe(float64(gasUsed.L2))
	m.daGasUsed.Observe(float64(gasUsed.DA))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	log.Info(log.Telemetry, "metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
