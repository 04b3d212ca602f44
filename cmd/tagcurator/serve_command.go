package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/tagcurator/internal/config"
	"github.com/listenupapp/tagcurator/internal/di/providers"
	"github.com/listenupapp/tagcurator/internal/logger"
	"github.com/listenupapp/tagcurator/internal/watcher"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the review API over HTTP",
		Long: `Run the review API over HTTP until interrupted.

Merges can be previewed, queued, dequeued, rejected, and applied in batches
through /api/v1/merges. With --watch the records file is re-imported,
replacing the corpus, whenever it changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if _, err := ctx.consolidator(); err != nil {
				return err
			}
			injector := ctx.container()
			cfg := do.MustInvoke[*config.Config](injector)
			log := do.MustInvoke[*logger.Logger](injector)

			srv, err := do.Invoke[*providers.HTTPServerHandle](injector)
			if err != nil {
				return err
			}

			var watchPath string
			watchDone := make(chan struct{})
			if cfg.Watch.File != "" {
				w, err := do.Invoke[*watcher.Watcher](injector)
				if err != nil {
					return err
				}
				watchPath = w.Path()
				go func() {
					defer close(watchDone)
					_ = w.Run(runCtx)
				}()
			} else {
				close(watchDone)
			}

			log.Info("Review API ready", "addr", srv.Addr, "watch_file", watchPath)

			select {
			case <-runCtx.Done():
			case err = <-srv.Err():
				stop()
			}
			<-watchDone

			// The container shuts the server down when the command returns.
			log.Info("Shutting down")
			return err
		},
	}

	cmd.Flags().StringVar(&ctx.flags.Port, "port", "", "HTTP port (default: 8080)")
	cmd.Flags().StringVar(&ctx.flags.WatchFile, "watch", "", "Records file to re-import when it changes")
	return cmd
}
