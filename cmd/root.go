package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-detect/mode"
	"github.com/khaledhikmat/vs-detect/model"
	"github.com/khaledhikmat/vs-detect/pipeline"
	"github.com/khaledhikmat/vs-detect/service/config"
	"github.com/khaledhikmat/vs-detect/service/data"
	"github.com/khaledhikmat/vs-detect/service/imagery"
	"github.com/khaledhikmat/vs-detect/service/inference"
	"github.com/khaledhikmat/vs-detect/service/lgr"
	"github.com/khaledhikmat/vs-detect/service/tracing"
)

// Version is the application version.
const Version = "0.1.0"

const use = "vs-detect <image_path>"

// usageError marks failures that should print the usage line rather than
// an error message.
type usageError struct {
	err error
}

func (e *usageError) Error() string {
	return e.err.Error()
}

func (e *usageError) Unwrap() error {
	return e.err
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     use,
		Short:   "Detect objects in a single image with a pretrained YOLOv8n model",
		Version: Version,
		// Any single argument is the image path, even one starting with a dash
		DisableFlagParsing: true,
		SilenceErrors:      true,
		SilenceUsage:       true,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return &usageError{err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "-h", "--help":
				return cmd.Help()
			case "--version":
				_, err := fmt.Fprintln(cmd.OutOrStdout(), cmd.Version)
				return err
			}
			return detect(cmd.Context(), args[0], cmd.OutOrStdout())
		},
	}
	return cmd
}

func detect(canxCtx context.Context, imagePath string, w io.Writer) error {
	// A missing .env is normal outside of development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return xerrors.Errorf("error loading .env file: %w", err)
	}

	cfgSvc := config.NewHardCoded()
	if !lgr.SetLevel(cfgSvc.GetLogLevel()) {
		lgr.Logger.Warn("ignoring unknown log level", slog.String("level", cfgSvc.GetLogLevel()))
	}

	dataSvc := data.NewNoop()
	if cfgSvc.GetDetectionsLogFile() != "" {
		dataSvc = data.NewFilesDB(cfgSvc)
	}
	defer func() {
		if err := dataSvc.Finalize(); err != nil {
			lgr.Logger.Error("error closing detections log", slog.Any("error", err))
		}
	}()

	backend := cfgSvc.GetInferenceBackend()
	inferenceSvc, err := inference.New(backend, cfgSvc)
	if err != nil {
		return model.GenError("cli", model.PipelineFailure, err,
			map[string]interface{}{"backend": backend},
			"error creating inference backend %s: %v", backend, err)
	}

	svcs := pipeline.ServicesFactory{
		CfgSvc:       cfgSvc,
		DataSvc:      dataSvc,
		ImagerySvc:   imagery.NewFiles(),
		InferenceSvc: inferenceSvc,
	}

	if cfgSvc.GetTraceSpans() {
		provider := tracing.NewLogged(lgr.Logger)
		defer func() {
			if err := provider.Shutdown(context.Background()); err != nil {
				lgr.Logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		svcs.Tracer = provider.Tracer("vs-detect/pipeline")
	}

	return mode.Detect(canxCtx, svcs, imagePath, w)
}

// Run executes the command line in args and returns the process exit code.
// Results go to stdout; failures are reported on stderr, except usage
// mistakes which print the usage line on stdout.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var uerr *usageError
	if errors.As(err, &uerr) {
		fmt.Fprintf(stdout, "Usage: %s\n", use)
		return 1
	}

	fmt.Fprintf(stderr, "Error: %s\n", err.Error())
	return 1
}

func Execute() int {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}
