package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jo-hoe/setupguide/internal/cache"
	"github.com/jo-hoe/setupguide/internal/core"
	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	verbose    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	var out string

	root := &cobra.Command{
		Use:          "export",
		Short:        "Render the Python setup guide to a standalone HTML file",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "info"
			if opts.verbose {
				level = "debug"
			}
			_, err := core.SetupLogging(stderr, level)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), opts, out, stdout)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.yaml (defaults are used when empty)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	root.Flags().StringVarP(&out, "out", "o", "guide.html", `output file, "-" for stdout`)

	root.AddCommand(newLinkCmd(opts, stdout))
	return root
}

func newLinkCmd(opts *options, stdout io.Writer) *cobra.Command {
	var filename, label string

	cmd := &cobra.Command{
		Use:   "link <image>",
		Short: "Print a self-contained PNG download link for an image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imageData, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image %s: %w", args[0], err)
			}
			if filename == "" {
				filename = pngFilename(args[0])
			}

			service, err := newCoreService(opts)
			if err != nil {
				return err
			}
			defer closeService(service)

			link, err := service.BuildDownloadLink(imageData, filename, label)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(stdout, link)
			return err
		},
	}

	cmd.Flags().StringVar(&filename, "filename", "", "download file name (defaults to the image's base name with a .png extension)")
	cmd.Flags().StringVar(&label, "label", "Download image", "link text")
	return cmd
}

// pngFilename names the download after the source file; the payload is always PNG.
func pngFilename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".png"
}

func runExport(ctx context.Context, opts *options, out string, stdout io.Writer) error {
	service, err := newCoreService(opts)
	if err != nil {
		return err
	}
	defer closeService(service)

	page, err := service.RenderPage(ctx)
	if err != nil {
		return err
	}

	if out == "-" {
		_, err = stdout.Write(page)
		return err
	}
	if err := os.WriteFile(out, page, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	slog.Info("guide exported", "path", out, "size_bytes", len(page))
	return nil
}

// newCoreService loads the optional config and forces the in-memory cache.
func newCoreService(opts *options) (*core.CoreService, error) {
	config := core.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := core.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
		config = loaded
	}
	config.Cache = core.Cache{Type: cache.TypeMemory}

	return core.NewCoreService(config)
}

func closeService(service *core.CoreService) {
	if err := service.Close(); err != nil {
		slog.Error("failed to close core service", "error", err)
	}
}
