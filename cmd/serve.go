package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-roster/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API over HTTP",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", "", "listen address (default :8000)")
	serveCmd.Flags().Int("workers", 0, "concurrent encoding workers per query")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("retrieval.workers", serveCmd.Flags().Lookup("workers"))
}

func serve(parent context.Context) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := bootstrap(ctx)
	defer env.Close()

	env.logger.Info("starting the hh-roster server", zap.String("version", version))

	srv := server.New(env.engine, server.Config{
		Addr:        env.config.Server.Addr,
		CORSOrigins: env.config.Server.CORSOrigins,
		ReadTimeout: env.config.Server.ReadTimeout,
		DefaultK:    env.config.Retrieval.TopK,
	}, env.logger)

	if err := srv.Run(ctx); err != nil {
		env.logger.Fatal("serving", zap.Error(err))
	}
}
