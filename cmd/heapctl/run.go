package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	runKeepGoing bool
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().BoolVarP(&runKeepGoing, "keep-going", "k", false, "Report failing commands and continue")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run allocator commands from a file",
		Long: `The run command executes a script of shell commands (one per line,
'#' starts a comment) against one arena. It stops at the first failing
command unless --keep-going is set. Use "-" to read the script from stdin.

Example:
  heapctl run workload.txt
  heapctl run workload.txt --guard --keep-going
  echo "alloc 16" | heapctl run - --file arena.bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(args)
		},
	}
	return cmd
}

func runScript(args []string) error {
	var in io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		in = f
	}

	a, err := openArena(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	out := io.Writer(os.Stdout)
	if quiet {
		out = io.Discard
	}
	s := &session{h: a.Heap, out: out}

	scanner := bufio.NewScanner(in)
	failed := 0
	for lineNo := 1; scanner.Scan(); lineNo++ {
		err := s.exec(scanner.Text())
		if errors.Is(err, errQuit) {
			break
		}
		if err == nil {
			continue
		}
		if !runKeepGoing {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		failed++
		fmt.Fprintf(os.Stderr, "line %d: %v\n", lineNo, err)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d command(s) failed", failed)
	}
	return nil
}
