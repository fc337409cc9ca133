package commands

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DrSkyle/balanco/pkg/config"
	"github.com/DrSkyle/balanco/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the consolidation handler over HTTP",
	Long: `Starts an HTTP server exposing:

  POST /consolidate         {"year": 2023}
  GET  /consolidate/:year
  GET  /healthz`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := newHandler(cmd.Context())
		if err != nil {
			return err
		}

		if cfg.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		router := server.NewRouter(h, logger)
		return server.Run(cmd.Context(), cfg.HTTPAddr, router, logger)
	},
}

func init() {
	serveCmd.Flags().String("addr", config.DefaultHTTPAddr, "Listen address (HTTP_ADDR)")
	if err := viper.BindPFlag(config.KeyHTTPAddr, serveCmd.Flags().Lookup("addr")); err != nil {
		panic(err)
	}
}
