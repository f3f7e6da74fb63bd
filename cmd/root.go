package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/prostore/storefront/internal/constants"
	"github.com/prostore/storefront/internal/log"
)

func Start() {
	logger := log.InitLogger("/var/log/storefront.log").
		With().
		Str(log.KeyAppName, constants.AppStorefront).
		Str(log.KeyTag, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	rootCmd := &cobra.Command{Use: "storefront"}
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run storefront service",
		Run: func(cmd *cobra.Command, args []string) {
			RunStorefrontApp(cmd.Context())
		},
	})
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}
