package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/caskdeck/caskdeck/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the task engine with a local HTTP API",
	Long: `Run caskdeck as a long-lived process. Tasks are submitted over HTTP
(POST /api/v1/tasks) and their state and progress stream over the
/ws/events websocket. The process exits on SIGINT or SIGTERM after the
task in flight has finished.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "address to listen on (default from server.listen)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
	}

	a, err := newApp(cfg, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{
		Runner: a.runner,
		Board:  a.board,
		Casks:  a.brew,
		Logger: a.logger,
	})

	runDone := make(chan error, 1)
	go func() { runDone <- a.runner.Run(ctx) }()

	listenErr := make(chan error, 1)
	go func() { listenErr <- srv.Listen(cfg.Server.Listen) }()

	fmt.Fprintf(cmd.OutOrStdout(), "caskdeck listening on http://%s\n", cfg.Server.Listen)

	select {
	case <-ctx.Done():
	case err := <-listenErr:
		stop()
		<-runDone
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown failed", "error", err)
	}

	if cur, ok := a.runner.Current(); ok {
		fmt.Fprintf(cmd.OutOrStdout(), "Waiting for %s %s to finish...\n", cur.Action, cur.DisplayName)
	}
	return <-runDone
}
