// Command dealerassist runs the dealer assistant API and its maintenance
// commands.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-dealer-assistant/internal/config"
	"github.com/tbourn/go-dealer-assistant/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "dealerassist",
	Short: "Conversational assistant over dealer, SKU, claim and sales data",
	Long: `dealerassist answers natural-language questions about inventory,
warranty claims and sales, phrased for the caller's role.

Configuration is read from the environment and an optional .env file
(ENV_FILE overrides the path).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = c
		sysutil.InitLogger(sysutil.LogOptions{
			Level:   cfg.LogLevel,
			Pretty:  cfg.LogPretty,
			Service: cfg.OTEL.ServiceName,
			Version: version,
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, seedCmd, askCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("dealerassist failed")
		os.Exit(1)
	}
}
