package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"hlsc/internal/dom"
	"hlsc/internal/errors"
	"hlsc/internal/ir"
	"hlsc/internal/pipeline"
)

func newSSACommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ssa FILE",
		Short: "Convert every scope to SSA form and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scopes, err := convert(cmd, opts, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), ir.Print(scopes...))
			return nil
		},
	}
}

func newCheckCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE...",
		Short: "Convert and verify files without printing them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := false
			for _, path := range args {
				start := time.Now()
				if _, err := convert(cmd, opts, path); err != nil {
					if err != errReported {
						fmt.Fprintln(cmd.ErrOrStderr(), color.RedString("%s: %s", path, err))
					}
					failed = true
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("Successfully processed %s in %s", path, formatDuration(time.Since(start))))
			}
			if failed {
				return errReported
			}
			return nil
		},
	}
}

func newDomCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dom FILE",
		Short: "Print the dominator tree and dominance frontiers of every scope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scopes, reporter, err := load(cmd.ErrOrStderr(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := false
			for _, scope := range scopes {
				tree, err := dom.Build(scope)
				if err != nil {
					report(cmd.ErrOrStderr(), reporter, scope, err)
					failed = true
					continue
				}
				frontier := dom.BuildFrontier(tree)

				fmt.Fprintf(out, "scope %s\n", scope.Name)
				fmt.Fprint(out, tree.String())
				for _, b := range scope.Blocks {
					var names []string
					for _, f := range frontier.Of(b) {
						names = append(names, f.Name)
					}
					fmt.Fprintf(out, "DF(%s) = {%s}\n", b.Name, strings.Join(names, ", "))
				}
			}
			if failed {
				return errReported
			}
			return nil
		},
	}
}

func newDotCommand(opts *globalOptions) *cobra.Command {
	var toSSA bool

	cmd := &cobra.Command{
		Use:   "dot FILE",
		Short: "Print every scope as a Graphviz digraph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var scopes []*ir.Scope
			var err error
			if toSSA {
				scopes, err = convert(cmd, opts, args[0])
			} else {
				scopes, _, err = load(cmd.ErrOrStderr(), args[0])
			}
			if err != nil {
				return err
			}
			for _, scope := range scopes {
				fmt.Fprint(cmd.OutOrStdout(), ir.DOT(scope))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&toSSA, "ssa", false, "Convert to SSA form before printing")
	return cmd
}

// convert loads a file and runs the pipeline over all of its scopes
func convert(cmd *cobra.Command, opts *globalOptions, path string) ([]*ir.Scope, error) {
	scopes, reporter, err := load(cmd.ErrOrStderr(), path)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	driver := pipeline.NewDriver(pipeline.New(opts.cfg), opts.cfg.Driver.Jobs)
	results, err := driver.RunAll(ctx, scopes)
	if err != nil {
		return nil, err
	}

	failed := pipeline.Failed(results)
	for _, r := range failed {
		report(cmd.ErrOrStderr(), reporter, r.Scope, r.Err)
	}
	if len(failed) > 0 {
		return nil, errReported
	}
	return scopes, nil
}

// report prints err through the reporter when it is a compiler error
func report(w io.Writer, reporter *errors.ErrorReporter, scope *ir.Scope, err error) {
	ce, ok := errors.AsCompilerError(err)
	if !ok {
		fmt.Fprintln(w, color.RedString("scope %s: %s", scope.Name, err))
		return
	}
	if ce.Position == (ir.Position{}) {
		copied := *ce
		copied.Position = scope.Pos
		copied.Length = len("scope")
		ce = &copied
	}
	fmt.Fprint(w, reporter.FormatError(ce))
}
