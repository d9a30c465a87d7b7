// Command pbtn-test opens the system push button and prints every pressed,
// hold and released callback with its seconds argument.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/pushbutton/internal/button"
	"github.com/sweeney/pushbutton/internal/config"
	"github.com/sweeney/pushbutton/internal/logic"
)

// exitUsage is the exit status for a malformed command line.
const exitUsage = 99

func main() {
	configPath := flag.String("config", config.DefaultButtonConfigPath, "Button configuration file")
	debug := flag.Bool("debug", false, "Log monitor activity")
	flag.Usage = func() { usage(flag.CommandLine.Output()) }
	flag.Parse()

	if flag.NArg() != 1 {
		usage(os.Stderr)
		os.Exit(exitUsage)
	}
	holdSec, err := parseHoldSeconds(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		usage(os.Stderr)
		os.Exit(exitUsage)
	}

	logger := logrus.New()
	if *debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	reg, err := button.InitFile(*configPath, button.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Initialize push button library failed: %v\n", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if err := run(reg, holdSec, os.Stdout, sigCh); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: %s [flags] <hold_seconds>\n", os.Args[0])
	fmt.Fprintf(w, "\t0: hold function triggered every second\n")
	fmt.Fprintf(w, "\t1 ~ %d: hold function triggered once after hold_seconds\n", logic.MaxHoldDuration)
	flag.PrintDefaults()
}

func parseHoldSeconds(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid hold_seconds %q", s)
	}
	if err := logic.ValidateHoldDuration(n); err != nil {
		return 0, fmt.Errorf("hold_seconds %d: %w", n, err)
	}
	return n, nil
}

// run opens the system button, prints its callbacks to w and returns once
// a signal arrives or the button monitor stops.
func run(reg *button.Registry, holdSec int, w io.Writer, sig <-chan os.Signal) error {
	fmt.Fprintln(w, "Testing Push button:")
	fmt.Fprintln(w, "========================================")

	id, err := reg.Open(button.TypeSystem, 1)
	if err != nil {
		return fmt.Errorf("open button failed: %w", err)
	}
	defer reg.Close(id)

	if err := reg.OnPressed(id, printer(w, "pressed_func")); err != nil {
		return fmt.Errorf("set pressed function failed: %w", err)
	}
	if err := reg.OnReleased(id, printer(w, "released_func")); err != nil {
		return fmt.Errorf("set released function failed: %w", err)
	}
	if err := reg.OnHold(id, printer(w, "hold_func"), holdSec); err != nil {
		return fmt.Errorf("set hold function failed: %w", err)
	}

	fmt.Fprintln(w, "- Start testing. Press button to check the functions.")
	fmt.Fprintln(w, "  [Ctrl + C] to terminate this process.")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stopped := make(chan error, 1)
	go func() { stopped <- reg.Wait(ctx) }()

	select {
	case <-sig:
		return nil
	case err := <-stopped:
		if err != nil {
			return err
		}
		return fmt.Errorf("button %d monitor stopped", id)
	}
}

// printer returns a callback writing "  This is in <name>, sec: <n>".
// Callbacks of one button run on one goroutine, so writes do not interleave.
func printer(w io.Writer, name string) button.Callback {
	return func(sec int) {
		fmt.Fprintf(w, "  This is in %s, sec: %d\n", name, sec)
	}
}
