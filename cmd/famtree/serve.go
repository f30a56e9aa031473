package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ersonp/famtree-core/internal/application/handlers"
	"github.com/ersonp/famtree-core/internal/infrastructure/canvas"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the family tree to a canvas over WebSocket",
		Long: `Starts the canvas bridge. Canvas clients connect to /ws, receive the graph
after every change and send node, edge and connect gestures back.
Health is reported on /health and metrics on /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: canvas.addr from config)")

	return cmd
}

func runServe(cmd *cobra.Command, addr string) error {
	ctx := cmd.Context()

	// The server logs at the configured level.
	globalVerbose = true

	return withEnvironment(func(env *environment) error {
		if addr == "" {
			addr = env.cfg.Canvas.Addr
		}

		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		server := canvas.NewServer(canvas.Config{
			Addr:     addr,
			Logger:   env.logger,
			Registry: registry,
		})

		return withInternalDeps(ctx, env, serveOptions(server, registry), func(d *internalDeps) error {
			canvasHandler := handlers.NewCanvasHandler(d.Tree, d.Logger)
			detach := canvasHandler.Attach(server)
			defer detach()

			if err := server.Start(canvasHandler); err != nil {
				return err
			}
			fmt.Printf("Serving family tree on ws://%s/ws (Ctrl+C to stop)\n", server.Addr())

			<-ctx.Done()

			err := server.Stop()
			canvasHandler.Wait()
			return err
		})
	})
}

// serveOptions routes notifications and dialogs to the canvas clients only.
// The synchronizer already logs every outcome, so no log notifier is added.
func serveOptions(server *canvas.Server, registry prometheus.Registerer) depsOptions {
	return depsOptions{
		notifier:            server,
		dialogs:             server,
		registry:            registry,
		tolerateLoadFailure: true,
	}
}
