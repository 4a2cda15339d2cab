package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/internal/logger"
	"github.com/joshuapare/heapkit/internal/mmfile"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	noColor bool

	// Arena flags
	arenaSize  int
	arenaGuard bool
	arenaFit   string
	arenaAlign int
	arenaFile  string
)

const defaultArenaSize = 64 << 10

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Drive and inspect a freestanding heap arena",
	Long: `heapctl creates an arena, allocates and frees blocks in it, and shows
the resulting block list. Arenas live in anonymous memory by default; with
--file they are mapped from a file and survive between invocations.`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.Init(logger.Options{Enabled: true, Level: slog.LevelDebug})
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log splits, coalesces and detected corruption to stderr")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.PersistentFlags().IntVar(&arenaSize, "size", defaultArenaSize, "Arena size in bytes for new arenas")
	rootCmd.PersistentFlags().BoolVar(&arenaGuard, "guard", false, "Bracket allocations with guard canaries")
	rootCmd.PersistentFlags().StringVar(&arenaFit, "fit", "first", "Fit strategy: first, best or worst")
	rootCmd.PersistentFlags().IntVar(&arenaAlign, "align", 16, "Request alignment: 8 or 16")
	rootCmd.PersistentFlags().StringVarP(&arenaFile, "file", "f", "", "Map the arena from this file, creating it if missing")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// arena is an open heap and the span backing it.
type arena struct {
	*heap.Heap
	span *mmfile.Span
}

func (a *arena) Close() error {
	return a.span.Close()
}

// openArena builds the arena described by the global flags. An existing
// --file is attached as is; its header decides guard, fit and alignment.
func openArena(obs heap.Observer) (*arena, error) {
	fit, err := heap.ParseStrategy(arenaFit)
	if err != nil {
		return nil, err
	}
	opts := heap.Options{Guard: arenaGuard, Fit: fit, Alignment: arenaAlign, Observer: obs}

	if arenaFile != "" {
		if _, err := os.Stat(arenaFile); err == nil {
			printVerbose("Attaching arena: %s\n", arenaFile)
			span, err := mmfile.Open(arenaFile)
			if err != nil {
				return nil, fmt.Errorf("failed to map arena: %w", err)
			}
			h, err := heap.Open(span.Bytes(), opts)
			if err != nil {
				span.Close()
				return nil, fmt.Errorf("failed to attach arena: %w", err)
			}
			return &arena{Heap: h, span: span}, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	var span *mmfile.Span
	if arenaFile != "" {
		printVerbose("Creating arena: %s (%d bytes)\n", arenaFile, arenaSize)
		span, err = mmfile.Create(arenaFile, arenaSize)
	} else {
		span, err = mmfile.Anonymous(arenaSize)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to map arena: %w", err)
	}
	h, err := heap.New(span.Bytes(), opts)
	if err != nil {
		span.Close()
		return nil, err
	}
	return &arena{Heap: h, span: span}, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
