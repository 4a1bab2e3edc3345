// Command region-diff diffs, patches, reverts and squashes Minecraft
// Anvil region files (.mca/.mcc) without decoding chunk NBT payloads.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/hairlessvillager/region-diff/internal/codec"
	"github.com/hairlessvillager/region-diff/internal/engine"
	"github.com/hairlessvillager/region-diff/internal/rlog"
)

var (
	workers   = flag.Int("t", 8, "number of worker goroutines to diff/patch/revert/squash slots with")
	vFlag     = flag.Bool("v", false, "log operation start/end and slot counts")
	vvFlag    = flag.Bool("vv", false, "also log per-slot classification")
	vvvFlag   = flag.Bool("vvv", false, "also tee debug-level output to debug.log")
	codecFlag = flag.String("c", "zlib", "compression codec for diff payloads: none, zlib, gzip, lz4")
)

func newEngine() *engine.Engine {
	kind, err := codec.ParseKind(*codecFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "region-diff: %v\n", err)
		os.Exit(2)
	}

	level := rlog.Silent
	switch {
	case *vvFlag || *vvvFlag:
		level = rlog.Debug
	case *vFlag:
		level = rlog.Info
	}
	log, err := rlog.New(level, *vvvFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "region-diff: opening debug.log: %v\n", err)
		os.Exit(1)
	}

	return &engine.Engine{
		DiffCodec: kind,
		Workers:   *workers,
		Log:       log,
		Progress:  os.Stderr,
	}
}

const helpText = `region-diff [-flags] <command> [-flags] <args>

To get help on any command, use region-diff <command> -help or
region-diff help <command>.

Commands:
	region-mca    - diff/patch/revert/squash terrain region files
	region-mcc    - diff/patch/revert/squash oversized chunk sidecars
	entities-mca  - diff/patch/revert/squash entity region files
`

func funcmain() error {
	flag.Parse()

	e := newEngine()
	defer e.Log.Close()

	type cmd struct {
		fn func(ctx context.Context, args []string) error
	}
	verbs := map[string]cmd{
		"region-mca":   {containerCmd(engine.RegionMCA, "region-mca", e)},
		"region-mcc":   {containerCmd(engine.RegionMCC, "region-mcc", e)},
		"entities-mca": {containerCmd(engine.RegionMCA, "entities-mca", e)},
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, helpText)
		os.Exit(2)
	}
	verb, args := args[0], args[1:]

	if verb == "help" {
		if len(args) != 1 {
			fmt.Fprint(os.Stderr, helpText)
			os.Exit(2)
		}
		verb = args[0]
		args = []string{"-help"}
	}

	ctx, canc := interruptibleContext()
	defer canc()

	v, ok := verbs[verb]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", verb)
		fmt.Fprintf(os.Stderr, "syntax: region-diff <command> [options]\n")
		os.Exit(2)
	}
	if err := v.fn(ctx, args); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "%s: %v\n", verb, err)
			os.Exit(2)
		}
		return fmt.Errorf("%s: %v", verb, err)
	}
	return nil
}

func main() {
	if err := funcmain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
