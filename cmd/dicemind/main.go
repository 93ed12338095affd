// Command dicemind is the thin front end of the dice-notation engine: it
// reads expressions, hands them to the evaluator with a random source, and
// renders results or diagnostics. With no arguments it starts a REPL.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/peterh/liner"

	"github.com/ktnlvr/dicemind"
)

const (
	appName     = "dicemind"
	historyFile = ".dicemind_history"
	prompt      = "dice? "
)

func red(s string) string   { return "\x1b[31m" + s + "\x1b[0m" }
func green(s string) string { return "\x1b[32m" + s + "\x1b[0m" }
func dim(s string) string   { return "\x1b[2m" + s + "\x1b[0m" }

// config is loaded from the environment; flags on individual commands
// override it.
type config struct {
	Seed            *int64 `env:"DICEMIND_SEED"`
	RerollCap       int64  `env:"DICEMIND_REROLL_CAP" envDefault:"1"`
	PercentileSides int64  `env:"DICEMIND_PERCENTILE_SIDES" envDefault:"100"`
	Trace           bool   `env:"DICEMIND_TRACE"`
}

func (c config) options() *dicemind.Options {
	return &dicemind.Options{
		RerollCap:       c.RerollCap,
		PercentileSides: c.PercentileSides,
		TraceEnabled:    c.Trace,
	}
}

// source returns a fresh random source per evaluation: seeded from config
// for reproducible sessions, from entropy otherwise.
func (c config) source() (dicemind.Source, error) {
	if c.Seed != nil {
		s := dicemind.NewSeededSource(*c.Seed)
		*c.Seed++
		return s, nil
	}
	return dicemind.NewSource()
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%s: parse env: %v\n", appName, err)
		os.Exit(2)
	}

	if len(os.Args) < 2 {
		os.Exit(cmdRepl(cfg))
	}

	switch cmd := os.Args[1]; cmd {
	case "repl":
		os.Exit(cmdRepl(cfg))
	case "roll":
		os.Exit(cmdRoll(cfg, os.Args[2:]))
	case "sim":
		os.Exit(cmdSim(cfg, os.Args[2:]))
	case "version":
		fmt.Println(dicemind.Version)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`dicemind %s

Usage:
  %s [repl]                          Start the REPL.
  %s roll <expr> [expr ...]          Evaluate expressions once.
  %s sim [flags] <expr>              Estimate the result distribution.
  %s version                         Print the version.

Environment:
  DICEMIND_SEED              Seed for reproducible rolls.
  DICEMIND_REROLL_CAP        Default reroll attempt limit (default 1).
  DICEMIND_PERCENTILE_SIDES  Sides of the %% die (default 100).
  DICEMIND_TRACE             Show per-die outcomes.
`, dicemind.Version, appName, appName, appName, appName)
}

// evalOnce evaluates one expression and renders the outcome in the
// "ok. / err." convention.
func evalOnce(cfg config, src string) bool {
	source, err := cfg.source()
	if err != nil {
		fmt.Fprintln(os.Stderr, red("err. "+err.Error()))
		return false
	}
	res, err := dicemind.Evaluate(src, source, cfg.options())
	if err != nil {
		fmt.Fprintln(os.Stderr, red("err. "+dicemind.WrapErrorWithSource(err, src).Error()))
		return false
	}
	fmt.Println(green(fmt.Sprintf("ok. %d", res.Value)))
	for _, g := range res.Trace {
		fmt.Println(dim("     " + formatGroup(g)))
	}
	return true
}

func formatGroup(g dicemind.GroupTrace) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%dd%d:", g.Count, g.Sides)
	for _, r := range g.Rolls {
		if r.Alive {
			fmt.Fprintf(&b, " %d", r.Value)
		} else {
			fmt.Fprintf(&b, " (%d)", r.Value)
		}
		if r.Rerolls > 0 {
			fmt.Fprintf(&b, "*%d", r.Rerolls)
		}
	}
	return b.String()
}

// -----------------------------------------------------------------------------
// roll
// -----------------------------------------------------------------------------

func cmdRoll(cfg config, args []string) int {
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s roll <expr> [expr ...]\n", appName)
		return 2
	}
	ret := 0
	for _, src := range args {
		fmt.Printf("%s%s\n", prompt, src)
		if !evalOnce(cfg, src) {
			ret = 1
		}
	}
	return ret
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func cmdRepl(cfg config) int {
	fmt.Printf("dicemind %s. Ctrl+D exits, :quit too.\n", dicemind.Version)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return 0
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, red("err. "+err.Error()))
			return 1
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			switch strings.ToLower(line) {
			case ":quit":
				return 0
			default:
				fmt.Println("unknown command. Type :quit to exit.")
			}
			continue
		}

		evalOnce(cfg, line)
		ln.AppendHistory(line)
	}
}

// -----------------------------------------------------------------------------
// sim
// -----------------------------------------------------------------------------

const (
	defaultIters = 10000
	barWidth     = 40
)

func cmdSim(cfg config, args []string) int {
	iters := int64(defaultIters)
	var exprs []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-i", "--iters":
			i++
			if i >= len(args) {
				fmt.Fprintf(os.Stderr, "usage: %s sim [-i iters] <expr>\n", appName)
				return 2
			}
			if _, err := fmt.Sscanf(args[i], "%d", &iters); err != nil || iters < 1 {
				fmt.Fprintf(os.Stderr, "%s: bad iteration count %q\n", appName, args[i])
				return 2
			}
		default:
			exprs = append(exprs, args[i])
		}
	}
	if len(exprs) != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s sim [-i iters] <expr>\n", appName)
		return 2
	}
	src := exprs[0]

	expr, err := dicemind.Parse(src)
	if err == nil {
		err = dicemind.ResolveAugmentations(expr, cfg.options())
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, red("err. "+dicemind.WrapErrorWithSource(err, src).Error()))
		return 1
	}

	source, err := cfg.source()
	if err != nil {
		fmt.Fprintln(os.Stderr, red("err. "+err.Error()))
		return 1
	}

	counts := map[int64]int64{}
	var sum float64
	for i := int64(0); i < iters; i++ {
		res, err := dicemind.EvaluateExpression(expr, source, cfg.options())
		if err != nil {
			fmt.Fprintln(os.Stderr, red("err. "+dicemind.WrapErrorWithSource(err, src).Error()))
			return 1
		}
		counts[res.Value]++
		sum += float64(res.Value)
	}

	values := make([]int64, 0, len(counts))
	var peak int64
	for v, n := range counts {
		values = append(values, v)
		if n > peak {
			peak = n
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	for _, v := range values {
		n := counts[v]
		bar := int(n * barWidth / peak)
		fmt.Printf("%6d | %-*s %5.2f%%\n", v, barWidth, strings.Repeat("#", bar), 100*float64(n)/float64(iters))
	}
	fmt.Printf("mean %.2f over %d rolls\n", sum/float64(iters), iters)
	return 0
}
