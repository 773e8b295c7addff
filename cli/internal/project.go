package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/spf13/cobra"

	"github.com/devilmonastery/fractal/internal/client"
	"github.com/devilmonastery/fractal/internal/domain/entities"
)

func newProjectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	cmd.AddCommand(newProjectNewCommand())
	cmd.AddCommand(newProjectListCommand())
	cmd.AddCommand(newProjectAddDatasetCommand())

	return cmd
}

func newProjectNewCommand() *cobra.Command {
	var datasetName string

	cmd := &cobra.Command{
		Use:   "new NAME [PROJECT_DIR]",
		Short: "Create a project",
		Long: `Create a project together with its default dataset.

PROJECT_DIR defaults to a slug of NAME. With --batch only the new project id is printed.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)

			req := entities.ProjectCreate{
				Name:               args[0],
				ProjectDir:         slug.Make(args[0]),
				DefaultDatasetName: datasetName,
			}
			if len(args) == 2 {
				req.ProjectDir = args[1]
			}

			return cliCtx.withGateway(cmd, func(ctx context.Context, g *client.Gateway) error {
				resp, err := g.PostJSON(ctx, apiBase+"/project/", req)
				if err != nil {
					return err
				}
				var project entities.Project
				if err := client.CheckResponse(resp, http.StatusCreated, &project); err != nil {
					return err
				}

				p := cliCtx.printer(cmd)
				if p.batch {
					p.Batch(project.ID)
					return nil
				}
				return p.Object(project)
			})
		},
	}

	cmd.Flags().StringVar(&datasetName, "dataset", "default", "Name of the default dataset")

	return cmd
}

func newProjectListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			return cliCtx.withGateway(cmd, func(ctx context.Context, g *client.Gateway) error {
				resp, err := g.Get(ctx, apiBase+"/project/", nil)
				if err != nil {
					return err
				}
				var projects []entities.Project
				if err := client.CheckResponse(resp, http.StatusOK, &projects); err != nil {
					return err
				}

				p := cliCtx.printer(cmd)
				if p.batch {
					ids := make([]string, len(projects))
					for i, project := range projects {
						ids[i] = strconv.FormatInt(project.ID, 10)
					}
					p.Batch(strings.Join(ids, " "))
					return nil
				}

				rows := make([][]string, len(projects))
				for i, project := range projects {
					names := make([]string, len(project.DatasetList))
					for j, ds := range project.DatasetList {
						names[j] = ds.Name
					}
					rows[i] = []string{
						strconv.FormatInt(project.ID, 10),
						project.Name,
						project.ProjectDir,
						strings.Join(names, ", "),
						checkmark(project.ReadOnly),
					}
				}
				return p.Table("Project List",
					[]string{"Id", "Name", "Proj. Dir.", "Dataset list", "Read only"},
					rows, projects)
			})
		},
	}
}

func newProjectAddDatasetCommand() *cobra.Command {
	var (
		metadataFile string
		datasetType  string
	)

	cmd := &cobra.Command{
		Use:   "add-dataset PROJECT_ID NAME",
		Short: "Add a dataset to a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)

			projectID, err := parseID("PROJECT_ID", args[0])
			if err != nil {
				return err
			}

			req := entities.DatasetCreate{Name: args[1], Meta: map[string]any{}}
			if datasetType != "" {
				req.Type = &datasetType
			}
			if metadataFile != "" {
				if req.Meta, err = readMetadata(metadataFile); err != nil {
					return err
				}
			}

			return cliCtx.withGateway(cmd, func(ctx context.Context, g *client.Gateway) error {
				resp, err := g.PostJSON(ctx, fmt.Sprintf("%s/project/%d", apiBase, projectID), req)
				if err != nil {
					return err
				}
				var dataset entities.Dataset
				if err := client.CheckResponse(resp, http.StatusCreated, &dataset); err != nil {
					return err
				}

				p := cliCtx.printer(cmd)
				if p.batch {
					p.Batch(dataset.ID)
					return nil
				}
				return p.Object(dataset)
			})
		},
	}

	cmd.Flags().StringVar(&metadataFile, "metadata", "", "JSON file with the dataset metadata")
	cmd.Flags().StringVar(&datasetType, "type", "", "Dataset type")

	return cmd
}

// parseID parses a positional integer argument
func parseID(name, value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, value)
	}
	return id, nil
}

// readMetadata loads a JSON object from path
func readMetadata(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}
	meta := map[string]any{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("metadata file %s is not a JSON object: %w", path, err)
	}
	return meta, nil
}
