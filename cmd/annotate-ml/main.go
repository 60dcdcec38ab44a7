package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/MissEmlizB/annotate-ml/internal/config"
	"github.com/MissEmlizB/annotate-ml/internal/dataset"
	"github.com/MissEmlizB/annotate-ml/internal/explore/web"
	"github.com/MissEmlizB/annotate-ml/internal/imaging"
	"github.com/MissEmlizB/annotate-ml/internal/logging"
	"github.com/MissEmlizB/annotate-ml/internal/pipeline"
	"github.com/MissEmlizB/annotate-ml/internal/server"
	"github.com/MissEmlizB/annotate-ml/internal/toolkit"
	"github.com/MissEmlizB/annotate-ml/internal/toolkit/builtin"
	"github.com/MissEmlizB/annotate-ml/internal/toolkit/turi"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Explorer choices for the visualise command.
const (
	explorerWeb = "web"
	explorerMCP = "mcp"
)

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command line in args and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newApp(stdin, stdout, stderr).RunContext(ctx, args)
	if err == nil {
		return 0
	}

	code := 1
	if exitErr, ok := err.(cli.ExitCoder); ok {
		code = exitErr.ExitCode()
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintln(stderr, msg)
	}
	return code
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "annotate-ml",
		Usage:     "train and inspect object detectors on Annotate ML exports",
		Writer:    stdout,
		ErrWriter: stderr,
		// Exit codes are mapped by run.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dataset",
				Aliases: []string{"d"},
				Usage:   "directory holding annotations.csv and the photos it references",
				Value:   config.DefaultExportPath,
				EnvVars: []string{"ANNOTATE_ML_EXPORT_PATH"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "trace, debug, info, warn or error",
				EnvVars: []string{logging.EnvLevel},
			},
		},
		Before: func(c *cli.Context) error {
			if err := logging.Setup(stderr, c.String("log-level")); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
		Commands: []*cli.Command{
			trainCommand(),
			visualiseCommand(stdin, stdout),
			convertCommand(),
			{
				Name:  "version",
				Usage: "print version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "annotate-ml %s\n", Version)
					fmt.Fprintf(c.App.Writer, "  Build time: %s\n", BuildTime)
					fmt.Fprintf(c.App.Writer, "  Git commit: %s\n", GitCommit)
					return nil
				},
			},
		},
	}
}

func trainCommand() *cli.Command {
	return &cli.Command{
		Name:  "train",
		Usage: "train, evaluate and export a detector",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "fraction",
				Aliases: []string{"f"},
				Usage:   "fraction of the rows used for training. Must be between 0 and 1",
				Value:   config.DefaultFraction,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "where the created model is saved",
				Value:   config.DefaultOutput,
			},
			&cli.StringFlag{
				Name:    "maxIterations",
				Aliases: []string{"mi"},
				Usage:   "number of training iterations, 0 to pick one from the amount of data",
				Value:   config.DefaultMaxIterations,
			},
			&cli.StringFlag{
				Name:    "batchSize",
				Aliases: []string{"s"},
				Usage:   "number of samples per training iteration, 0 to pick one automatically",
				Value:   config.DefaultBatchSize,
			},
			&cli.StringFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "print progress updates and model details (true/yes or false/no)",
				Value:   config.DefaultVerbose,
			},
			&cli.StringFlag{
				Name:  "toolkit",
				Usage: "detector backend: builtin or turi",
				Value: config.DefaultToolkit,
			},
			&cli.StringFlag{
				Name:    "seed",
				Usage:   "seed for the train/test split and batch sampling, 0 for a random one. Forests are not seeded",
				Value:   config.DefaultSeed,
				EnvVars: []string{"ANNOTATE_ML_SEED"},
			},
			&cli.StringFlag{
				Name:    "python",
				Usage:   "python interpreter with turicreate installed (turi toolkit)",
				Value:   turi.DefaultPython,
				EnvVars: []string{"ANNOTATE_ML_PYTHON"},
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Parse(config.Options{
				Fraction:      c.String("fraction"),
				Output:        c.String("output"),
				MaxIterations: c.String("maxIterations"),
				BatchSize:     c.String("batchSize"),
				Verbose:       c.String("verbose"),
				ExportPath:    c.String("dataset"),
				Toolkit:       c.String("toolkit"),
				Seed:          c.String("seed"),
			})
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			if _, err := pipeline.RunTrain(c.Context, cfg, newDetector(cfg.Toolkit, c.String("python")), c.App.Writer); err != nil {
				log.Error().Err(err).Str("toolkit", cfg.Toolkit).Msg("training failed")
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func newDetector(name, python string) toolkit.Detector {
	if name == config.ToolkitTuri {
		return turi.New(python)
	}
	return builtin.New()
}

func visualiseCommand(stdin io.Reader, stdout io.Writer) *cli.Command {
	defaults := imaging.DefaultOverlayStyle()
	return &cli.Command{
		Name:    "visualise",
		Aliases: []string{"visualize"},
		Usage:   "draw the ground-truth boxes and open an explorer",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "explorer",
				Usage: "web (browser gallery) or mcp (JSON-RPC on stdin/stdout)",
				Value: explorerWeb,
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address of the web explorer",
				Value: web.DefaultAddr,
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "open the web explorer in the default browser",
			},
			&cli.Float64Flag{
				Name:  "line-width",
				Usage: "box outline width in pixels",
				Value: defaults.LineWidth,
			},
			&cli.Float64Flag{
				Name:  "font-size",
				Usage: "label size in points",
				Value: defaults.FontSize,
			},
			&cli.StringFlag{
				Name:  "color",
				Usage: "draw every box in this #RRGGBB colour instead of one colour per label",
			},
		},
		Action: func(c *cli.Context) error {
			opts := config.DefaultOptions()
			opts.ExportPath = c.String("dataset")
			cfg, err := config.Parse(opts)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			var explorer toolkit.Explorer
			switch c.String("explorer") {
			case explorerWeb:
				explorer = &web.Explorer{Addr: c.String("addr"), Open: c.Bool("open")}
			case explorerMCP:
				server.Version = Version
				explorer = &server.Explorer{In: stdin, Out: stdout}
			default:
				return cli.Exit(fmt.Sprintf("Warning: --explorer must be %s or %s.", explorerWeb, explorerMCP), 1)
			}

			visualiser := toolkit.NewBoxVisualiser(imaging.OverlayStyle{
				LineWidth: c.Float64("line-width"),
				FontSize:  c.Float64("font-size"),
				Color:     c.String("color"),
			})
			if err := pipeline.RunVisualise(c.Context, cfg.ExportPath, visualiser, explorer); err != nil {
				log.Error().Err(err).Msg("visualisation failed")
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "convert a Create ML annotations.json into an annotations.csv",
		ArgsUsage: "<annotations.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "file to write, standard output when empty",
			},
			&cli.BoolFlag{
				Name:  "top-left",
				Usage: "boxes in the input are anchored at their top-left corner",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("Warning: convert needs exactly one annotations.json file.", 1)
			}
			if err := convert(c.Args().First(), c.String("output"), c.Bool("top-left"), c.App.Writer); err != nil {
				log.Error().Err(err).Msg("conversion failed")
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func convert(input, output string, topLeft bool, stdout io.Writer) error {
	in, err := os.Open(input)
	if err != nil {
		return errors.Wrap(err, "failed to open input")
	}
	defer in.Close()

	records, err := dataset.ConvertCreateML(in, topLeft)
	if err != nil {
		return err
	}

	if output == "" {
		return dataset.WriteCSV(stdout, records)
	}
	out, err := os.Create(output)
	if err != nil {
		return errors.Wrap(err, "failed to create output")
	}
	if err := dataset.WriteCSV(out, records); err != nil {
		out.Close()
		return err
	}
	return errors.Wrap(out.Close(), "failed to write output")
}
