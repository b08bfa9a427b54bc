package cmd

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/taskloop/taskloop/internal/server"
)

var servePort int

// serveCmd runs the HTTP API for web front-ends.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve exposes the assistant over HTTP:

  POST /api/chat       process one conversation turn
  GET  /api/projects   list projects
  GET  /api/tasks      list tasks (filter by project_id, sprint_id, status)
  GET  /api/sprints    list sprints
  GET  /api/health     liveness check`,
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, store, cleanup, err := buildOrchestrator()
		if err != nil {
			return err
		}
		defer cleanup()

		srv := server.New(servePort, viper.GetStringSlice("server.allowedOrigins"), orch, store)

		var wg sync.WaitGroup
		errChan := make(chan error, 1)
		srv.Start(&wg, errChan)

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errChan:
			return err
		case <-stop:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
		wg.Wait()
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8377, "port to listen on")
	rootCmd.AddCommand(serveCmd)
}
