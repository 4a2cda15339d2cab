package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newShellCmd())
}

func newShellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive allocator prompt",
		Long: `The shell command reads allocator commands from standard input and
runs them against one arena. Failures are reported and the prompt continues.
Type "help" for the command list.

Example:
  heapctl shell
  heapctl shell --guard --fit best
  heapctl shell --file arena.bin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(os.Stdin, os.Stdout)
		},
	}
	return cmd
}

func runShell(in io.Reader, out io.Writer) error {
	a, err := openArena(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	s := &session{h: a.Heap, out: out}
	scanner := bufio.NewScanner(in)
	for {
		if !quiet {
			fmt.Fprint(out, paint(headerStyle, "heap")+"> ")
		}
		if !scanner.Scan() {
			break
		}
		err := s.exec(scanner.Text())
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			fmt.Fprintln(out, paint(errorStyle, "error: ")+err.Error())
		}
	}
	if !quiet {
		fmt.Fprintln(out)
	}
	return scanner.Err()
}
