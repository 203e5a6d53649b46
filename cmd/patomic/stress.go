package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/llxisdsh/patomic"
)

var (
	errLostUpdate = errors.New("lost update")
	errDuplicate  = errors.New("duplicate fetch result")
	errWidth      = errors.New("width must be 64 or 128")
)

type stressOpts struct {
	width      int
	goroutines int
	iterations int
	unique     bool
	metrics    bool
}

// stressMetrics lives in a private registry per run; nothing is served.
type stressMetrics struct {
	registry   *prometheus.Registry
	increments prometheus.Counter
	workers    prometheus.Histogram
}

func newStressMetrics(width int, lockFree bool) *stressMetrics {
	labels := prometheus.Labels{
		"width":     fmt.Sprint(width),
		"lock_free": fmt.Sprint(lockFree),
	}
	m := &stressMetrics{
		registry: prometheus.NewRegistry(),
		increments: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "patomic_stress_increments_total",
			Help:        "Increments applied to the shared cell.",
			ConstLabels: labels,
		}),
		workers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "patomic_stress_worker_seconds",
			Help:        "Wall time each worker spent on its increments.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
	m.registry.MustRegister(m.increments, m.workers)
	return m
}

// counter abstracts the two cell widths the stress command drives.
type counter interface {
	add() (prev patomic.Uint128)
	load() patomic.Uint128
}

type counter64 struct{ c patomic.AtomicUint64 }

func (c *counter64) add() patomic.Uint128 {
	return patomic.Uint128From64(c.c.FetchAdd(1, patomic.AcqRel))
}

func (c *counter64) load() patomic.Uint128 {
	return patomic.Uint128From64(c.c.Load(patomic.SeqCst))
}

type counter128 struct{ c patomic.AtomicUint128 }

func (c *counter128) add() patomic.Uint128 {
	return c.c.FetchAdd(patomic.Uint128From64(1), patomic.AcqRel)
}

func (c *counter128) load() patomic.Uint128 {
	return c.c.Load(patomic.SeqCst)
}

type stressResult struct {
	total    patomic.Uint128
	want     patomic.Uint128
	lockFree bool
	elapsed  time.Duration
	metrics  *stressMetrics
}

// runStress increments one cell from o.goroutines workers. With o.unique
// every previous value returned by the increments is recorded, and seeing
// one twice means two increments were applied to the same state.
func runStress(ctx context.Context, o stressOpts) (stressResult, error) {
	var c counter
	var lockFree bool
	switch o.width {
	case 64:
		c, lockFree = new(counter64), patomic.IsLockFree64()
	case 128:
		c, lockFree = new(counter128), patomic.IsLockFree128()
	default:
		return stressResult{}, fmt.Errorf("%w: got %d", errWidth, o.width)
	}
	if o.goroutines <= 0 || o.iterations < 0 {
		return stressResult{}, fmt.Errorf("invalid load: %d goroutines, %d iterations", o.goroutines, o.iterations)
	}

	m := newStressMetrics(o.width, lockFree)
	seen := newSeenSet()
	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for range o.goroutines {
		g.Go(func() error {
			timer := prometheus.NewTimer(m.workers)
			defer timer.ObserveDuration()
			for i := range o.iterations {
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				prev := c.add()
				m.increments.Inc()
				if !o.unique {
					continue
				}
				if !seen.add(prev) {
					return fmt.Errorf("%w: %s", errDuplicate, prev)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stressResult{}, err
	}

	r := stressResult{
		total:    c.load(),
		want:     patomic.Uint128From64(uint64(o.goroutines) * uint64(o.iterations)),
		lockFree: lockFree,
		elapsed:  time.Since(start),
		metrics:  m,
	}
	if r.total != r.want {
		return r, fmt.Errorf("%w: counter %s, want %s", errLostUpdate, r.total, r.want)
	}
	return r, nil
}

func newStressCmd() *cobra.Command {
	var o stressOpts

	stressCmd := &cobra.Command{
		Use:   "stress",
		Short: "Run concurrent increments and check none are lost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := runStress(cmd.Context(), o)
			if err != nil {
				return fmt.Errorf("stress %d-bit: %w", o.width, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "width=%d lock_free=%t goroutines=%d iterations=%d total=%s elapsed=%s\n",
				o.width, r.lockFree, o.goroutines, o.iterations, r.total, r.elapsed.Round(time.Microsecond))
			if o.metrics {
				if err := writeMetrics(out, r.metrics.registry); err != nil {
					return fmt.Errorf("gather metrics: %w", err)
				}
			}
			return nil
		},
	}
	stressCmd.Flags().IntVarP(&o.width, "width", "w", 128, "cell width in bits (=64, =128)")
	stressCmd.Flags().IntVarP(&o.goroutines, "goroutines", "g", runtime.GOMAXPROCS(0), "number of concurrent workers")
	stressCmd.Flags().IntVarP(&o.iterations, "iterations", "n", 100000, "increments per worker")
	stressCmd.Flags().BoolVar(&o.unique, "unique", false, "verify every increment observed a distinct previous value")
	stressCmd.Flags().BoolVar(&o.metrics, "metrics", false, "print the collected run metrics")
	return stressCmd
}

// writeMetrics prints the gathered families in the text exposition format.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
