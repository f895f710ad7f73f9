package main

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/joshuapare/kheapkit/heap"
	"github.com/joshuapare/kheapkit/heap/alloc"
	"github.com/joshuapare/kheapkit/internal/fault"
	"github.com/joshuapare/kheapkit/internal/format"
)

var (
	stressOps     int
	stressSeed    uint64
	stressMaxSize uint32
	stressMetrics bool
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVarP(&stressOps, "ops", "n", 100000, "Number of operations to run")
	cmd.Flags().Uint64Var(&stressSeed, "seed", 1, "Workload seed")
	cmd.Flags().Uint32Var(&stressMaxSize, "max-size", 3*format.PageSize, "Largest request size in bytes")
	cmd.Flags().BoolVar(&stressMetrics, "metrics", false, "Print collected Prometheus metrics")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Run a randomized allocation workload",
		Long: `The stress command builds a heap from the configuration and drives it
with a random mix of alloc, free, realloc, calloc and valloc calls. Every
live block is filled with a pattern that is checked before it is released,
and the heap structure is verified at the end.

Example:
  kheapctl stress
  kheapctl stress --ops 1000000 --max-size 65536 --seed 7
  kheapctl stress --config heap.toml --metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
}

// StressReport summarizes one stress run.
type StressReport struct {
	Ops        int           `json:"ops"`
	NoSpace    int           `json:"no_space"`
	Live       int           `json:"live"`
	HeapBytes  uint32        `json:"heap_bytes"`
	HeapFree   uint32        `json:"heap_free"`
	FramesUsed uint32        `json:"frames_used"`
	FramesFree uint32        `json:"frames_free"`
	Stats      alloc.Stats   `json:"stats"`
	SkipLevels []int         `json:"skip_levels"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	Verified   bool          `json:"verified"`
}

type liveBlock struct {
	p    alloc.Addr
	n    uint32
	mark byte
}

func runStress() error {
	if stressMaxSize == 0 {
		return errors.New("--max-size must be positive")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var reg *prometheus.Registry
	var opts []heap.Option
	if stressMetrics {
		reg = prometheus.NewRegistry()
		opts = append(opts, heap.WithMetrics(alloc.NewMetrics(reg)))
	}
	h, err := heap.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer h.Close()

	report := StressReport{Ops: stressOps}
	start := time.Now()
	if f := fault.Catch(func() { err = stress(h, &report) }); f != nil {
		return fmt.Errorf("heap fault: %w", f)
	}
	if err != nil {
		return err
	}
	report.Elapsed = time.Since(start)

	a := h.Allocator()
	if err := a.Verify(); err != nil {
		return err
	}
	report.Verified = true
	report.HeapBytes = h.Brk() - cfg.Base
	report.HeapFree = h.Remaining()
	report.FramesUsed, report.FramesFree = h.FrameStats()
	report.Stats = a.Stats()
	report.SkipLevels = a.SkipLevels()

	if jsonOut {
		return printJSON(report)
	}
	printReport(report)
	if reg != nil {
		return printMetrics(reg)
	}
	return nil
}

// stress runs the workload. Allocation failures for lack of space are
// counted and make the workload shed half of its live blocks.
func stress(h *heap.Heap, report *StressReport) error {
	rng := rand.New(rand.NewPCG(stressSeed, stressSeed^0x5bd1e995))
	var live []liveBlock

	check := func(b liveBlock) error {
		for i, v := range h.Bytes(b.p, b.n) {
			if v != b.mark+byte(i) {
				return fmt.Errorf("block %#x: byte %d is %#x, want %#x", b.p, i, v, b.mark+byte(i))
			}
		}
		return nil
	}
	stamp := func(b liveBlock) {
		data := h.Bytes(b.p, b.n)
		for i := range data {
			data[i] = b.mark + byte(i)
		}
	}
	drop := func(i int) error {
		b := live[i]
		if err := check(b); err != nil {
			return err
		}
		h.Free(b.p)
		live[i] = live[len(live)-1]
		live = live[:len(live)-1]
		return nil
	}

	for op := range stressOps {
		if len(live) > 0 && rng.IntN(10) < 4 {
			if err := drop(rng.IntN(len(live))); err != nil {
				return err
			}
			continue
		}

		n := uint32(rng.Int64N(int64(stressMaxSize))) + 1
		b := liveBlock{n: n, mark: byte(op)}
		var err error
		switch k := rng.IntN(20); {
		case k == 0:
			b.p, err = h.Valloc(n)
		case k == 1:
			b.p, err = h.Calloc(1, n)
		case k < 4 && len(live) > 0:
			i := rng.IntN(len(live))
			if err = check(live[i]); err != nil {
				return err
			}
			b.p, err = h.Realloc(live[i].p, n)
			if err == nil {
				live[i] = live[len(live)-1]
				live = live[:len(live)-1]
			}
		default:
			b.p, err = h.Alloc(n)
		}

		if errors.Is(err, alloc.ErrNoSpace) {
			report.NoSpace++
			for len(live) > 0 && rng.IntN(2) == 0 {
				if err := drop(rng.IntN(len(live))); err != nil {
					return err
				}
			}
			continue
		}
		if err != nil {
			return err
		}
		stamp(b)
		live = append(live, b)
	}

	report.Live = len(live)
	return nil
}

func printReport(r StressReport) {
	printInfo("Operations:    %s in %s\n", humanize.Comma(int64(r.Ops)), r.Elapsed.Round(time.Millisecond))
	printInfo("Heap grown:    %s (%d growths)\n", humanize.IBytes(uint64(r.HeapBytes)), r.Stats.GrowCalls)
	printInfo("Headroom:      %s, %d frames free of %d\n",
		humanize.IBytes(uint64(r.HeapFree)), r.FramesFree, r.FramesUsed+r.FramesFree)
	printInfo("In use:        %s in %s blocks\n",
		humanize.IBytes(uint64(r.Stats.InUseBytes)), humanize.Comma(int64(r.Stats.InUseCells)))
	printInfo("Allocations:   %s small, %s big (%s reused)\n",
		humanize.Comma(int64(r.Stats.SmallAllocs)),
		humanize.Comma(int64(r.Stats.BigAllocs)),
		humanize.Comma(int64(r.Stats.SkipHits)))
	printInfo("Frees:         %s\n", humanize.Comma(int64(r.Stats.FreeCalls)))
	printInfo("Reallocs:      %s (%s moved)\n",
		humanize.Comma(int64(r.Stats.ReallocCalls)), humanize.Comma(int64(r.Stats.ReallocMoves)))
	printInfo("Out of space:  %d\n", r.NoSpace)
	printInfo("Big blocks:    %d (%d free)\n", r.Stats.BigBlocks, r.Stats.FreeBig)
	printInfo("Skip levels:   %v\n", r.SkipLevels)
	printInfo("Bin pages:     %v\n", r.Stats.BinPages)
	printInfo("Verify:        ok\n")
}

func printMetrics(g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	printInfo("\nMetrics:\n")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			}
			printInfo("  %-40s %g\n", mf.GetName(), v)
		}
	}
	return nil
}
