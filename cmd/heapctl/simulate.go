package main

import (
	"errors"
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/leakcheck"
)

var (
	simOps       int
	simSeed      uint64
	simMaxSize   int
	simFreeRatio float64
	simCompare   bool
)

func init() {
	cmd := newSimulateCmd()
	cmd.Flags().IntVarP(&simOps, "ops", "n", 10000, "Number of operations")
	cmd.Flags().Uint64Var(&simSeed, "seed", 1, "Random seed")
	cmd.Flags().IntVar(&simMaxSize, "max-size", 512, "Largest request size in bytes")
	cmd.Flags().Float64Var(&simFreeRatio, "free-ratio", 0.4, "Probability that an operation frees a live block")
	cmd.Flags().BoolVar(&simCompare, "compare", false, "Run the workload once per fit strategy")
	rootCmd.AddCommand(cmd)
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a random allocate/free workload and report fragmentation",
		Long: `The simulate command drives an arena with a reproducible random mix of
allocations and frees, validates the block list after every operation, and
prints the final statistics. With --compare the same workload runs under
each fit strategy.

Example:
  heapctl simulate --ops 50000 --max-size 2048
  heapctl simulate --compare --seed 7
  heapctl simulate --fit worst --guard --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate()
		},
	}
	return cmd
}

// simResult is the outcome of one workload run.
type simResult struct {
	Fit       string     `json:"fit"`
	Ops       int        `json:"ops"`
	Failed    int        `json:"failed_allocs"`
	Live      int        `json:"live"`
	LiveBytes int        `json:"live_bytes"`
	PeakLive  int        `json:"peak_live"`
	Stats     heap.Stats `json:"stats"`
}

func runSimulate() error {
	if simOps < 0 || simMaxSize <= 0 {
		return fmt.Errorf("ops must be >= 0 and max-size > 0")
	}
	if simFreeRatio < 0 || simFreeRatio > 1 {
		return fmt.Errorf("free-ratio must be within [0, 1]")
	}

	fits := []string{arenaFit}
	if simCompare {
		fits = fits[:0]
		for _, s := range heap.Strategies {
			fits = append(fits, s.String())
		}
	}

	results := make([]simResult, 0, len(fits))
	for _, fit := range fits {
		r, err := simulateOnce(fit)
		if err != nil {
			return err
		}
		results = append(results, r)
	}

	if jsonOut {
		return printJSON(results)
	}
	for i, r := range results {
		if i > 0 {
			printInfo("\n")
		}
		printInfo("%s\n", paint(headerStyle, r.Fit+"-fit"))
		printInfo("%s", numbers.Sprintf("Workload:      %d ops, %d failed allocation(s), %d live (%d bytes, peak %d)\n",
			r.Ops, r.Failed, r.Live, r.LiveBytes, r.PeakLive))
		if !quiet {
			renderStats(os.Stdout, r.Stats)
		}
	}
	return nil
}

func simulateOnce(fit string) (simResult, error) {
	strategy, err := heap.ParseStrategy(fit)
	if err != nil {
		return simResult{}, err
	}
	tracker := leakcheck.New(nil)
	a, err := openArena(tracker)
	if err != nil {
		return simResult{}, err
	}
	defer a.Close()
	// A file-backed arena may already hold blocks from an earlier run.
	a.Reset()
	if err := a.SetFit(strategy); err != nil {
		return simResult{}, err
	}

	rng := rand.New(rand.NewSource(int64(simSeed)))
	var live []heap.Ref
	failed := 0
	for op := range simOps {
		if len(live) > 0 && rng.Float64() < simFreeRatio {
			i := rng.Intn(len(live))
			if err := a.Free(live[i]); err != nil {
				return simResult{}, fmt.Errorf("op %d: %w", op, err)
			}
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
		} else {
			ref, err := a.Alloc(1 + rng.Intn(simMaxSize))
			switch {
			case errors.Is(err, heap.ErrNoSpace):
				failed++
			case err != nil:
				return simResult{}, fmt.Errorf("op %d: %w", op, err)
			default:
				live = append(live, ref)
			}
		}
		if err := a.Check(); err != nil {
			return simResult{}, fmt.Errorf("op %d: %w", op, err)
		}
	}

	st, err := a.Stats()
	if err != nil {
		return simResult{}, err
	}
	peak, _ := tracker.Peak()
	return simResult{
		Fit:       strategy.String(),
		Ops:       simOps,
		Failed:    failed,
		Live:      tracker.Live(),
		LiveBytes: tracker.LiveBytes(),
		PeakLive:  peak,
		Stats:     st,
	}, nil
}
