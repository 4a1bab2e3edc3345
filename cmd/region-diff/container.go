package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/hairlessvillager/region-diff/internal/engine"
	"golang.org/x/xerrors"
)

// errUsage marks an error as a usage mistake (unknown verb/op, wrong
// argument count) rather than a runtime failure, so main can choose exit
// code 2 instead of 1.
var errUsage = errors.New("region-diff: usage error")

// containerCmd returns a verb handler for one of the three container
// kinds (region-mca, region-mcc, entities-mca); all three share the same
// four operations and dispatch into the same internal/engine.
func containerCmd(format engine.Format, label string, e *engine.Engine) func(ctx context.Context, args []string) error {
	return func(ctx context.Context, args []string) error {
		fset := flag.NewFlagSet(label, flag.ExitOnError)
		fset.Usage = usage(fset, fmt.Sprintf(containerHelp, label, label, label, label, label))
		fset.Parse(args)

		rest := fset.Args()
		if len(rest) < 1 {
			return xerrors.Errorf("syntax: region-diff %s <diff|patch|revert|squash> ...: %w", label, errUsage)
		}
		op, opArgs := rest[0], rest[1:]

		switch op {
		case "diff":
			if len(opArgs) != 3 {
				return xerrors.Errorf("syntax: region-diff %s diff <old> <new> <out>: %w", label, errUsage)
			}
			return e.Diff(ctx, format, opArgs[0], opArgs[1], opArgs[2])
		case "patch":
			if len(opArgs) != 3 {
				return xerrors.Errorf("syntax: region-diff %s patch <old> <diff> <out>: %w", label, errUsage)
			}
			return e.Patch(ctx, format, opArgs[0], opArgs[1], opArgs[2])
		case "revert":
			if len(opArgs) != 3 {
				return xerrors.Errorf("syntax: region-diff %s revert <new> <diff> <out>: %w", label, errUsage)
			}
			return e.Revert(ctx, format, opArgs[0], opArgs[1], opArgs[2])
		case "squash":
			if len(opArgs) != 3 {
				return xerrors.Errorf("syntax: region-diff %s squash <diff1> <diff2> <out>: %w", label, errUsage)
			}
			return e.Squash(ctx, format, opArgs[0], opArgs[1], opArgs[2])
		default:
			return xerrors.Errorf("unknown operation %q for %s: %w", op, label, errUsage)
		}
	}
}

const containerHelp = `region-diff %s <op> [args]

Operations:
  region-diff %s diff    <old> <new> <out>
  region-diff %s patch   <old> <diff> <out>
  region-diff %s revert  <new> <diff> <out>
  region-diff %s squash  <diff1> <diff2> <out>
`
