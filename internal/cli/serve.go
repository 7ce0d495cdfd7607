package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/backoffice/internal/server"
)

const defaultAddr = "127.0.0.1:8080"

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local store over HTTP",
		Long: `Serve exposes the local store as a JSON REST API that other backoffice
clients can use with transport "http". The configured token, if any, is
required as a bearer token. Metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer b.Detach()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			srv := server.New(b,
				server.WithToken(a.cfg.Token),
				server.WithLogger(a.logger),
				server.WithRegistry(reg),
			)
			if err := srv.ListenAndServe(cmd.Context(), addr); err != nil {
				return sysError(err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	return cmd
}
