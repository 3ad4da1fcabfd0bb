package cmd

import (
	"github.com/spf13/cobra"

	"library-catalog/config"
	"library-catalog/library"
	"library-catalog/library/httpapi"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		Long: `serve exposes the catalog, borrowing and patron reports as a JSON API,
with /healthcheck and Prometheus /metrics. It stops gracefully on SIGINT.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.HTTPAddr
			}
			return a.withManager(cmd.Context(), func(mgr *library.LibraryManager) error {
				router := httpapi.NewRouter(mgr, a.logger, config.Version)
				return httpapi.NewServer(addr, router, a.logger, a.cfg.ShutdownTimeout).Run(cmd.Context())
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from LIBRARY_HTTP_ADDR)")
	return cmd
}
