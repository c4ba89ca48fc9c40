package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"video-labeler/application/report"
	"video-labeler/infrastructure/logging"
	"video-labeler/infrastructure/preview"

	"github.com/spf13/cobra"
)

var (
	serveAddr string
	serveDir  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generated report over HTTP",
	Long: `Serves the report directory written by a previous run so it can be
viewed in a browser. GET /health reports whether a report exists and
GET /api/records returns index.json.

Example:
  video-labeler serve --addr 127.0.0.1:8080 --dir output`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", preview.DefaultAddr, "Listen address")
	serveCmd.Flags().StringVar(&serveDir, "dir", report.DefaultOutputDir, "Report directory to serve")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.WithComponent(newLogger(), "preview")

	if info, err := os.Stat(serveDir); err != nil || !info.IsDir() {
		return fmt.Errorf("report directory %s not found; run the pipeline first", serveDir)
	}

	server := preview.NewServer(preview.ServerConfig{
		Addr:   serveAddr,
		Dir:    serveDir,
		Logger: logger,
	})

	return RunServeWithServer(cmd.Context(), server, os.Stdout)
}

// Server is the lifecycle the serve command drives
type Server interface {
	Start() error
	Shutdown(ctx context.Context) error
	Addr() string
}

// RunServeWithServer runs server until ctx is cancelled or it fails (for testing)
func RunServeWithServer(ctx context.Context, server Server, output io.Writer) error {
	fmt.Fprintf(output, "Serving report at http://%s/\n", server.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("preview server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop preview server: %w", err)
	}
	return <-errCh
}
