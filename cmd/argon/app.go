package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"argon/internal/config"
	"argon/internal/observ"
	"argon/internal/prof"
	"argon/internal/trace"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	cfg    *config.Config
	color  bool
	timer  *observ.Timer
	tracer trace.Tracer
	prof   *prof.Session
}

// setup merges argon.toml with the persistent flags and installs the tracer.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	pf := cmd.Root().PersistentFlags()
	cfg, err := loadConfig(pf.Lookup("config").Value.String())
	if err != nil {
		return err
	}
	overrides := map[string]*string{
		"color":       &cfg.Output.Color,
		"trace":       &cfg.Trace.Output,
		"trace-level": &cfg.Trace.Level,
		"trace-mode":  &cfg.Trace.Mode,
	}
	for name, field := range overrides {
		if f := pf.Lookup(name); f != nil && f.Changed {
			*field = strings.TrimSpace(f.Value.String())
		}
	}
	// Naming a trace file without a level implies phase tracing.
	if pf.Lookup("trace").Changed && !pf.Lookup("trace-level").Changed && cfg.Trace.Level == "off" {
		cfg.Trace.Level = "phase"
	}
	if n, err := pf.GetInt("max-diagnostics"); err == nil && n > 0 {
		cfg.Stage.MaxDiagnostics = n
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.color = useColor(cfg.Output.Color, cmd.OutOrStdout())
	color.NoColor = !a.color

	if timings, _ := pf.GetBool("timings"); timings {
		a.timer = observ.NewTimer()
	}

	popts := prof.Options{
		CPU:   pf.Lookup("cpu-profile").Value.String(),
		Mem:   pf.Lookup("mem-profile").Value.String(),
		Trace: pf.Lookup("runtime-trace").Value.String(),
	}
	if popts.Enabled() {
		if a.prof, err = prof.Start(popts); err != nil {
			return err
		}
	}

	tcfg, err := cfg.TraceConfig()
	if err != nil {
		return err
	}
	a.tracer, err = trace.New(tcfg)
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), a.tracer))
	return nil
}

// close stops the profilers, flushes the tracer and prints timings. A
// failed run also dumps the ring buffer, if one was kept.
func (a *app) close(stderr io.Writer, runErr error) {
	if err := a.prof.Stop(); err != nil {
		fmt.Fprintf(stderr, "profile: %v\n", err)
	}
	if a.tracer != nil {
		if runErr != nil {
			if r := trace.RingOf(a.tracer); r != nil {
				fmt.Fprintln(stderr, "trace: last events")
				_ = r.Dump(stderr, trace.FormatText)
				fmt.Fprintln(stderr, "trace: spans")
				_ = r.WriteSummary(stderr)
			}
		}
		if err := a.tracer.Flush(); err != nil {
			fmt.Fprintf(stderr, "trace: flush error: %v\n", err)
		}
		if err := a.tracer.Close(); err != nil {
			fmt.Fprintf(stderr, "trace: close error: %v\n", err)
		}
	}
	if a.timer != nil {
		fmt.Fprint(stderr, a.timer.Summary())
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.Discover(wd)
}

func useColor(mode string, out io.Writer) bool {
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return os.Getenv("NO_COLOR") == "" && isTerminal(out)
	}
}
