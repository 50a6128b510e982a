package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"repgen/config"
	"repgen/convert"
	"repgen/misc"
	"repgen/state"
)

const generateHelp = `%s
SOURCE:
    report to process, one of:
        "[path]report.yaml" or "[path]report.json"
            relative image paths are resolved against report directory
        "[path]bundle.zip"
            archive with report.yaml, report.yml or report.json and images,
            relative image paths are looked up in archive first

DESTINATION:
    directory to put document into, file name is derived from report title
    or "output_name_template" configuration value
    path ending in ".pdf" is used as is
    if absent - current working directory
`

const dumpConfigHelp = `%s

DESTINATION:
    file to write configuration to, if absent - STDOUT

Actual configuration is embedded defaults with values from configuration
file superimposed. Use --default to see embedded defaults alone.
`

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:         "generate",
		Usage:        "Generates PDF document from report",
		ArgsUsage:    "SOURCE [DESTINATION]",
		OnUsageError: passUsageError,
		Action:       convert.Run,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "overwrite existing document"},
			&cli.StringFlag{Name: "date", Usage: "print `DATE` (YYYY-MM-DD) on the document instead of the one recorded in report"},
		},
		CustomHelpTemplate: fmt.Sprintf(generateHelp, cli.CommandHelpTemplate),
	}
}

func dumpConfigCommand() *cli.Command {
	return &cli.Command{
		Name:         "dumpconfig",
		Usage:        "Dumps either default or actual configuration (YAML)",
		ArgsUsage:    "[DESTINATION]",
		OnUsageError: passUsageError,
		Action:       dumpConfig,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "default", Usage: "output embedded default configuration"},
		},
		CustomHelpTemplate: fmt.Sprintf(dumpConfigHelp, cli.CommandHelpTemplate),
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "produces paginated PDF of neighbour inspection reports",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          setupEnv,
		After:           teardownEnv,
		OnUsageError:    passUsageError,
		ExitErrHandler:  logExitError,
		CommandNotFound: unknownCommand,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "collect configuration, input, intermediate dumps and logs into report archive"},
		},
		Commands: []*cli.Command{generateCommand(), dumpConfigCommand()},
	}
}

func main() {
	// interrupt cancels image downloads and stops generation between stages
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	err := newApp().Run(ctx, os.Args)
	stop()

	if err != nil {
		// log may be not opened yet or already closed
		if !errLogged {
			fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
		}
		os.Exit(1)
	}
}

func dumpConfig(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	args := cmd.Args().Slice()
	if len(args) > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", args[1:]))
	}

	which, produce := "actual", func() ([]byte, error) { return config.Dump(env.Cfg) }
	if cmd.Bool("default") {
		which, produce = "default", config.Prepare
	}
	data, err := produce()
	if err != nil {
		return fmt.Errorf("unable to get %s configuration: %w", which, err)
	}

	if len(args) == 0 {
		env.Log.Info("Outputting configuration", zap.String("state", which), zap.String("file", "STDOUT"))
		_, err = os.Stdout.Write(data)
	} else {
		env.Log.Info("Outputting configuration", zap.String("state", which), zap.String("file", args[0]))
		err = os.WriteFile(args[0], data, 0644)
	}
	if err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
