package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/opal-lang/planwords/core/planfmt"
	"github.com/opal-lang/planwords/core/planfmt/formatter"
	"github.com/opal-lang/planwords/runtime/executor"
	"github.com/opal-lang/planwords/runtime/lexer"
	"github.com/opal-lang/planwords/runtime/logging"
	"github.com/opal-lang/planwords/runtime/symbols"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv)
	stop()
	os.Exit(code)
}

// app carries the streams and environment of one invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	flags    configFlags
	useColor bool
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr, getenv: getenv}
	rootCmd := a.rootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		FormatError(stderr, err, a.useColor)
		return 1
	}
	return 0
}

func (a *app) rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "planwords [command]",
		Short:         "Run word-oriented plans",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add flags
	rootCmd.PersistentFlags().StringVar(&a.flags.configPath, "config", "", "Path to config file (default "+DefaultConfigFile+" if present)")
	rootCmd.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "info", "Log level: error, warn, info, debug, verbose")
	rootCmd.PersistentFlags().BoolVar(&a.flags.debug, "debug", false, "Enable debug output")
	rootCmd.PersistentFlags().BoolVar(&a.flags.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(a.runCommand(), a.tokensCommand(), a.symbolsCommand())
	return rootCmd
}

// settings resolves configuration for cmd and sets up the logger.
func (a *app) settings(cmd *cobra.Command) (Settings, *logging.Logger, error) {
	s, err := resolveSettings(a.flags, cmd.Flags().Changed, a.getenv, isTerminal(a.stdout))
	if err != nil {
		return Settings{}, nil, err
	}
	a.useColor = s.UseColor
	return s, logging.New(a.stderr, s.LogLevel), nil
}

func (a *app) runCommand() *cobra.Command {
	var (
		watch    bool
		compiled bool
	)

	cmd := &cobra.Command{
		Use:   "run [file|-|url]",
		Short: "Execute a plan",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, logger, err := a.settings(cmd)
			if err != nil {
				return err
			}
			source := ""
			if len(args) == 1 {
				source = args[0]
			}

			if !watch {
				return a.executePlan(cmd.Context(), source, compiled, s, logger)
			}

			if source == "" || source == "-" || isURL(source) {
				return &CLIError{Type: "usage", Message: "--watch needs a plan file", Hint: "planwords run --watch plan.pw"}
			}
			rerun := func() {
				if err := a.executePlan(cmd.Context(), source, compiled, s, logger); err != nil {
					FormatError(a.stderr, err, a.useColor)
				}
			}
			rerun()
			return watchFile(cmd.Context(), source, logger, rerun)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Re-run the plan whenever the file changes")
	cmd.Flags().BoolVar(&compiled, "compiled", false, "Input is a CBOR-encoded plan (see tokens --format cbor)")
	return cmd
}

// executePlan loads and runs one plan. Soft aborts are logged by the
// evaluator and are not errors.
func (a *app) executePlan(ctx context.Context, source string, compiled bool, s Settings, logger *logging.Logger) error {
	data, err := loadPlan(ctx, source, a.stdin)
	if err != nil {
		return err
	}

	cfg := s.ExecutorConfig(a.stdout, logger)
	var result *executor.ExecutionResult
	if compiled {
		words, err := planfmt.Decode(data)
		if err != nil {
			return &CLIError{
				Type:    "load",
				Message: "invalid compiled plan",
				Details: err.Error(),
				Hint:    "produce compiled plans with: planwords tokens --format cbor",
				Err:     err,
			}
		}
		result, err = executor.ExecuteWords(words, cfg)
		if err != nil {
			return err
		}
	} else {
		result, err = executor.Execute(string(data), cfg)
		if err != nil {
			return err
		}
	}

	if result.Telemetry != nil {
		logger.Info("Plan statistics",
			"words", result.Words,
			"evaluated", result.WordsEvaluated,
			"blocks", result.Telemetry.Evaluator.BlocksEvaluated,
			"iterations", result.Telemetry.Evaluator.LoopIterations,
			"lines", result.LinesWritten,
			"max_depth", result.Telemetry.Evaluator.MaxDepth,
			"eval_time", result.Telemetry.EvalTime,
		)
	}
	for _, event := range result.DebugEvents {
		logger.Debug("debug event", "event", event.Event, "context", event.Context)
	}
	return nil
}

func (a *app) tokensCommand() *cobra.Command {
	var (
		format string
		digest bool
	)

	cmd := &cobra.Command{
		Use:   "tokens [file|-|url]",
		Short: "Print the words of a plan",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, logger, err := a.settings(cmd)
			if err != nil {
				return err
			}
			source := ""
			if len(args) == 1 {
				source = args[0]
			}

			data, err := loadPlan(cmd.Context(), source, a.stdin)
			if err != nil {
				return err
			}
			opts := []lexer.Option{lexer.WithLogger(logger)}
			if s.Debug == executor.DebugDetailed {
				opts = append(opts, lexer.WithDebug())
			}
			words := lexer.Parse(string(data), opts...)

			if digest {
				sum, err := planfmt.Digest(words)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(a.stdout, sum)
				return err
			}

			switch format {
			case "text":
				formatter.FormatList(a.stdout, words, s.UseColor)
			case "tree":
				formatter.FormatTree(a.stdout, words, s.UseColor)
			case "cbor":
				encoded, err := planfmt.Encode(words)
				if err != nil {
					return err
				}
				_, err = a.stdout.Write(encoded)
				return err
			default:
				return &CLIError{
					Type:    "usage",
					Message: fmt.Sprintf("unknown format %q", format),
					Hint:    "use --format text, tree or cbor",
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, tree or cbor")
	cmd.Flags().BoolVar(&digest, "digest", false, "Print the plan digest instead of its words")
	return cmd
}

func (a *app) symbolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "symbols",
		Short: "List the words plans can resolve besides keywords and literals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.settings(cmd)
			if err != nil {
				return err
			}

			table := symbols.Builtins()
			for _, name := range table.Names() {
				v, err := table.Resolve(name)
				if err != nil {
					return err
				}
				padded := fmt.Sprintf("%-8s", name)
				if _, err := fmt.Fprintf(a.stdout, "%s %s\n", Colorize(padded, ColorBlue, s.UseColor), v.Kind()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
