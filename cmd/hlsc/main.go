// SPDX-License-Identifier: Apache-2.0
package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"hlsc/grammar"
	"hlsc/internal/builder"
	"hlsc/internal/config"
	"hlsc/internal/errors"
	"hlsc/internal/ir"
)

// errReported is returned once the problems have been printed
var errReported = stderrors.New("errors reported")

type globalOptions struct {
	configPath string
	verbose    int
	logFile    string
	noColor    bool
	jobs       int
	strict     bool

	cfg *config.Config
}

func main() {
	startTime := time.Now()

	if err := newRootCommand().Execute(); err != nil {
		if err != errReported {
			color.Red("%s", err)
		}
		color.Red("Compilation failed after %s", formatDuration(time.Since(startTime)))
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "hlsc",
		Short:         "SSA construction for textual control-flow graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "TOML configuration file")
	flags.CountVarP(&opts.verbose, "verbose", "v", "Increase log verbosity (repeatable)")
	flags.StringVar(&opts.logFile, "log", "", "Write logs to a file instead of stderr")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	flags.IntVarP(&opts.jobs, "jobs", "j", 0, "Number of scopes converted in parallel")
	flags.BoolVar(&opts.strict, "strict", false, "Reject phis that merge a value undefined on some edge")

	cmd.AddCommand(
		newSSACommand(opts),
		newDomCommand(opts),
		newDotCommand(opts),
		newCheckCommand(opts),
	)
	return cmd
}

// setup loads the configuration, applies the command-line overrides and
// configures logging and color
func (o *globalOptions) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	var options []config.Option
	if flags.Changed("verbose") {
		options = append(options, config.OptionVerbosity(cfg.Log.Verbosity+o.verbose))
	}
	if flags.Changed("log") {
		options = append(options, config.OptionLogFile(o.logFile))
	}
	if flags.Changed("no-color") {
		options = append(options, config.OptionColor(!o.noColor))
	}
	if flags.Changed("jobs") {
		options = append(options, config.OptionJobs(o.jobs))
	}
	if flags.Changed("strict") {
		options = append(options, config.OptionStrictUndefined(o.strict))
	}
	cfg.ProcessOptions(options...)
	if err := cfg.Validate(); err != nil {
		return err
	}

	color.NoColor = color.NoColor || !cfg.Driver.Color
	if cfg.Log.File != "" {
		commonlog.Configure(cfg.Log.Verbosity, &cfg.Log.File)
	} else {
		commonlog.Configure(cfg.Log.Verbosity, nil)
	}

	o.cfg = cfg
	return nil
}

// load parses and builds a file, printing every diagnostic. Only scopes
// without errors are returned.
func load(w io.Writer, path string) ([]*ir.Scope, *errors.ErrorReporter, error) {
	file, source, err := grammar.ParseFile(path)
	if err != nil {
		if source != "" {
			grammar.ReportParseError(source, err)
			return nil, nil, errReported
		}
		return nil, nil, err
	}

	reporter := errors.NewErrorReporter(path, source)
	scopes, diags := builder.Build(file)
	for _, d := range diags {
		fmt.Fprint(w, reporter.FormatError(d))
	}
	if diags.HasErrors() {
		return scopes, reporter, errReported
	}
	return scopes, reporter, nil
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fmin", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}
