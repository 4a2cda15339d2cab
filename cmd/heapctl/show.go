package main

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newShowCmd())
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the block list of an arena",
		Long: `The show command prints every free span and allocated block of the
arena in address order, followed by a one-line map of the arena. Without
--file it shows a freshly bootstrapped arena.

Example:
  heapctl show --file arena.bin
  heapctl show --file arena.bin --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow()
		},
	}
	return cmd
}

type showOutput struct {
	Size      int        `json:"size"`
	Fit       string     `json:"fit"`
	Alignment int        `json:"alignment"`
	Guard     bool       `json:"guard"`
	Blocks    []blockRow `json:"blocks"`
}

func runShow() error {
	a, err := openArena(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if jsonOut {
		blocks, err := a.Blocks()
		if err != nil {
			return err
		}
		return printJSON(showOutput{
			Size:      a.Size(),
			Fit:       a.Fit().String(),
			Alignment: a.Alignment(),
			Guard:     a.Guarded(),
			Blocks:    blockRows(a.Heap, blocks),
		})
	}
	if quiet {
		return a.Check()
	}
	return renderMap(os.Stdout, a.Heap)
}
