package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/joshuapare/heapkit/heap"
)

// errQuit ends a session.
var errQuit = errors.New("quit")

// session executes allocator commands against one arena. It backs both the
// interactive shell and scripted runs.
type session struct {
	h   *heap.Heap
	out io.Writer
}

const sessionHelp = `commands:
  alloc <size>            allocate size bytes, print the reference
  calloc <count> <size>   allocate count*size zeroed bytes
  realloc <ref> <size>    resize an allocation
  free <ref>              release an allocation
  usable <ref>            print the usable size of an allocation
  fit [first|best|worst]  print or change the fit strategy
  show                    print the block list
  stats                   print totals and counters
  check                   validate the whole block list
  error                   print the last error classification
  reset                   discard every allocation
  quit                    leave
references and sizes accept decimal or 0x-prefixed hex`

// exec runs one command line. Blank lines and lines starting with '#' are
// ignored. errQuit is returned for quit/exit.
func (s *session) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "alloc", "malloc":
		var size int
		if err := parseArgs(cmd, args, &size); err != nil {
			return err
		}
		ref, err := s.h.Alloc(size)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%#x\n", uint64(ref))

	case "calloc":
		var count, size int
		if err := parseArgs(cmd, args, &count, &size); err != nil {
			return err
		}
		ref, err := s.h.Calloc(count, size)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%#x\n", uint64(ref))

	case "realloc":
		var ref heap.Ref
		var size int
		if err := parseArgs(cmd, args, &ref, &size); err != nil {
			return err
		}
		moved, err := s.h.Realloc(ref, size)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%#x\n", uint64(moved))

	case "free":
		var ref heap.Ref
		if err := parseArgs(cmd, args, &ref); err != nil {
			return err
		}
		return s.h.Free(ref)

	case "usable":
		var ref heap.Ref
		if err := parseArgs(cmd, args, &ref); err != nil {
			return err
		}
		n, err := s.h.UsableSize(ref)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, n)

	case "fit":
		if len(args) == 0 {
			fmt.Fprintln(s.out, s.h.Fit())
			return nil
		}
		fit, err := heap.ParseStrategy(args[0])
		if err != nil {
			return err
		}
		return s.h.SetFit(fit)

	case "show":
		return renderMap(s.out, s.h)

	case "stats":
		st, err := s.h.Stats()
		if err != nil {
			return err
		}
		renderStats(s.out, st)

	case "check":
		if err := s.h.Check(); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "ok")

	case "error":
		fmt.Fprintln(s.out, s.h.LastError())

	case "reset":
		s.h.Reset()

	case "help", "?":
		fmt.Fprintln(s.out, sessionHelp)

	case "quit", "exit", "q":
		return errQuit

	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

// parseArgs parses args into dst, which holds *int or *heap.Ref values.
func parseArgs(cmd string, args []string, dst ...any) error {
	if len(args) != len(dst) {
		return fmt.Errorf("%s: expected %d argument(s), got %d", cmd, len(dst), len(args))
	}
	for i, arg := range args {
		switch p := dst[i].(type) {
		case *int:
			n, err := strconv.ParseInt(arg, 0, strconv.IntSize)
			if err != nil {
				return fmt.Errorf("%s: invalid size %q", cmd, arg)
			}
			*p = int(n)
		case *heap.Ref:
			n, err := strconv.ParseUint(arg, 0, 64)
			if err != nil {
				return fmt.Errorf("%s: invalid reference %q", cmd, arg)
			}
			*p = heap.Ref(n)
		}
	}
	return nil
}
