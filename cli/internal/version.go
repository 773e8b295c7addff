package cli

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/fractal/internal/client"
	"github.com/devilmonastery/fractal/internal/version"
)

// apiBase prefixes every versioned REST path
const apiBase = "/api/v1"

type aliveResponse struct {
	Alive          bool   `json:"alive"`
	DeploymentType string `json:"deployment_type"`
	Version        string `json:"version"`
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show client and server versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			return cliCtx.withGateway(cmd, func(ctx context.Context, g *client.Gateway) error {
				resp, err := g.Get(ctx, "/api/alive/", nil)
				if err != nil {
					return err
				}
				var alive aliveResponse
				if err := client.CheckResponse(resp, http.StatusOK, &alive); err != nil {
					return err
				}

				p := cliCtx.printer(cmd)
				if p.json {
					return p.Object(map[string]string{
						"client_version":  version.Version,
						"server_url":      g.ServerURL(),
						"deployment_type": alive.DeploymentType,
						"server_version":  alive.Version,
					})
				}
				p.Line("Fractal client")
				p.Line("\tversion: %s", version.Version)
				p.Line("Fractal server:")
				p.Line("\turl: %s", g.ServerURL())
				p.Line("\tdeployment type: %s", alive.DeploymentType)
				p.Line("\tversion: %s", alive.Version)
				return nil
			})
		},
	}
}
