// Package cmd implements the Zoetrope CLI commands.
//
// The command structure follows standard Go CLI patterns with a root command
// that dispatches to subcommands (run, resolve, render).
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-drift/zoetrope/pkg/errors"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

// Command represents a CLI command.
type Command struct {
	Name        string
	Short       string
	Long        string
	Usage       string
	Run         func(ctx context.Context, args []string) error
	SubCommands []*Command
}

var rootCmd = &Command{
	Name:  "zoetrope",
	Short: "Zoetrope - frame-driven animation timelines",
	Long: `Zoetrope plays timelines of eased animation clocks on a fixed-rate
frame loop. A timeline document lists animations with a duration, a
delay relative to the previous entry and an easing curve.

Use "zoetrope <command> --help" for more information about a command.`,
	Usage: "zoetrope [--log-level LEVEL] [--log-format text|json] <command> [flags]",
}

// Commands registered with the CLI.
var commands = make(map[string]*Command)

// Output streams, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// RegisterCommand adds a command to the CLI.
func RegisterCommand(cmd *Command) {
	commands[cmd.Name] = cmd
	rootCmd.SubCommands = append(rootCmd.SubCommands, cmd)
}

// Execute runs the CLI with the given arguments, not including the
// program name.
func Execute(ctx context.Context, args []string) error {
	// Handle no arguments
	if len(args) == 0 {
		printHelp(rootCmd)
		return nil
	}

	logLevel := os.Getenv("ZOETROPE_LOG_LEVEL")
	logFormat := os.Getenv("ZOETROPE_LOG_FORMAT")

	// Handle global flags ahead of the command name
	var filteredArgs []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(filteredArgs) > 0 {
			filteredArgs = append(filteredArgs, arg)
			continue
		}
		switch arg {
		case "-h", "--help", "help":
			printHelp(rootCmd)
			return nil
		case "-v", "--version", "version":
			fmt.Fprintf(stdout, "Zoetrope CLI version %s (built %s)\n", Version, BuildTime)
			return nil
		case "--log-level", "--log-format":
			if i+1 >= len(args) {
				return fmt.Errorf("%s requires a value", arg)
			}
			if arg == "--log-level" {
				logLevel = args[i+1]
			} else {
				logFormat = args[i+1]
			}
			i++
		default:
			switch {
			case strings.HasPrefix(arg, "--log-level="):
				logLevel = strings.TrimPrefix(arg, "--log-level=")
			case strings.HasPrefix(arg, "--log-format="):
				logFormat = strings.TrimPrefix(arg, "--log-format=")
			default:
				filteredArgs = append(filteredArgs, arg)
			}
		}
	}
	args = filteredArgs

	if err := setupLogging(logLevel, logFormat); err != nil {
		return err
	}

	if len(args) == 0 {
		printHelp(rootCmd)
		return nil
	}

	// Find and execute the command
	cmdName := args[0]
	cmd, ok := commands[cmdName]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", cmdName)
		printHelp(rootCmd)
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	// Check for help flag on subcommand
	cmdArgs := args[1:]
	for _, arg := range cmdArgs {
		if arg == "-h" || arg == "--help" || arg == "help" {
			printCommandHelp(cmd)
			return nil
		}
	}

	return cmd.Run(ctx, cmdArgs)
}

// setupLogging installs the default slog logger on stderr and routes
// reported errors through it.
func setupLogging(level, format string) error {
	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return fmt.Errorf("invalid log level %q", level)
		}
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		h = slog.NewTextHandler(stderr, opts)
	case "json":
		h = slog.NewJSONHandler(stderr, opts)
	default:
		return fmt.Errorf("invalid log format %q (use text or json)", format)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	errors.SetHandler(&errors.LogHandler{Logger: logger, Verbose: lvl <= slog.LevelDebug})
	return nil
}

func printHelp(cmd *Command) {
	fmt.Fprintln(stdout, cmd.Long)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Usage:")
	fmt.Fprintf(stdout, "  %s\n", cmd.Usage)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Commands:")
	for _, sub := range cmd.SubCommands {
		fmt.Fprintf(stdout, "  %-14s %s\n", sub.Name, sub.Short)
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Flags:")
	fmt.Fprintln(stdout, "  -h, --help           Show help for a command")
	fmt.Fprintln(stdout, "  -v, --version        Show version information")
	fmt.Fprintln(stdout, "  --log-level LEVEL    Log level: debug, info, warn, error (default: info)")
	fmt.Fprintln(stdout, "  --log-format FORMAT  Log format: text or json (default: text)")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Environment:")
	fmt.Fprintln(stdout, "  ZOETROPE_LOG_LEVEL   Log level (lower priority than --log-level)")
	fmt.Fprintln(stdout, "  ZOETROPE_LOG_FORMAT  Log format (lower priority than --log-format)")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Examples:")
	fmt.Fprintln(stdout, "  zoetrope resolve intro.yaml          Print the resolved schedule")
	fmt.Fprintln(stdout, "  zoetrope run intro.yaml --loop       Play the timeline back and forth")
	fmt.Fprintln(stdout, "  zoetrope render intro.yaml -o a.png  Draw the schedule as a chart")
}

func printCommandHelp(cmd *Command) {
	fmt.Fprintln(stdout, cmd.Long)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Usage:")
	fmt.Fprintf(stdout, "  %s\n", cmd.Usage)
}
