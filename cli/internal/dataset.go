package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/fractal/internal/client"
	"github.com/devilmonastery/fractal/internal/domain/entities"
)

func newDatasetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Inspect and edit datasets",
	}

	cmd.AddCommand(newDatasetShowCommand())
	cmd.AddCommand(newDatasetAddResourceCommand())
	cmd.AddCommand(newDatasetEditCommand())

	return cmd
}

// datasetArgs parses the PROJECT_ID DATASET_ID pair every dataset command takes
func datasetArgs(args []string) (projectID, datasetID int64, err error) {
	if projectID, err = parseID("PROJECT_ID", args[0]); err != nil {
		return 0, 0, err
	}
	if datasetID, err = parseID("DATASET_ID", args[1]); err != nil {
		return 0, 0, err
	}
	return projectID, datasetID, nil
}

func newDatasetShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show PROJECT_ID DATASET_ID",
		Short: "Show a dataset and its resources",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			projectID, datasetID, err := datasetArgs(args)
			if err != nil {
				return err
			}

			return cliCtx.withGateway(cmd, func(ctx context.Context, g *client.Gateway) error {
				resp, err := g.Get(ctx, fmt.Sprintf("%s/dataset/%d/%d", apiBase, projectID, datasetID), nil)
				if err != nil {
					return err
				}
				var dataset entities.Dataset
				if err := client.CheckResponse(resp, http.StatusOK, &dataset); err != nil {
					return err
				}

				p := cliCtx.printer(cmd)
				if p.json {
					return p.Object(dataset)
				}

				datasetType := ""
				if dataset.Type != nil {
					datasetType = *dataset.Type
				}
				meta, err := json.Marshal(dataset.Meta)
				if err != nil {
					return fmt.Errorf("failed to encode metadata: %w", err)
				}

				md := markdownTable("Dataset",
					[]string{"Id", "Name", "Type", "Meta", "Read only"},
					[][]string{{
						strconv.FormatInt(dataset.ID, 10),
						dataset.Name,
						datasetType,
						"`" + string(meta) + "`",
						checkmark(dataset.ReadOnly),
					}})

				resources := make([][]string, len(dataset.ResourceList))
				for i, r := range dataset.ResourceList {
					resources[i] = []string{strconv.FormatInt(r.ID, 10), r.Path, r.GlobPattern}
				}
				md += "\n" + markdownTable("Resources", []string{"Id", "Path", "Glob pattern"}, resources)

				return p.Markdown(md)
			})
		},
	}
}

func newDatasetAddResourceCommand() *cobra.Command {
	var globPattern string

	cmd := &cobra.Command{
		Use:   "add-resource PROJECT_ID DATASET_ID PATH",
		Short: "Attach a path to a dataset",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			projectID, datasetID, err := datasetArgs(args)
			if err != nil {
				return err
			}

			req := entities.ResourceCreate{Path: args[2], GlobPattern: globPattern}

			return cliCtx.withGateway(cmd, func(ctx context.Context, g *client.Gateway) error {
				resp, err := g.PostJSON(ctx, fmt.Sprintf("%s/project/%d/%d", apiBase, projectID, datasetID), req)
				if err != nil {
					return err
				}
				var resource entities.Resource
				if err := client.CheckResponse(resp, http.StatusCreated, &resource); err != nil {
					return err
				}

				p := cliCtx.printer(cmd)
				if p.batch {
					p.Batch(resource.ID)
					return nil
				}
				return p.Object(resource)
			})
		},
	}

	cmd.Flags().StringVar(&globPattern, "glob", "", "Glob pattern selecting files below PATH")

	return cmd
}

func newDatasetEditCommand() *cobra.Command {
	var (
		name         string
		datasetType  string
		metadataFile string
		readOnly     bool
	)

	cmd := &cobra.Command{
		Use:   "edit PROJECT_ID DATASET_ID",
		Short: "Change dataset attributes",
		Long: `Change dataset attributes. Only the flags given are sent.

--metadata none resets the metadata to an empty object.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			projectID, datasetID, err := datasetArgs(args)
			if err != nil {
				return err
			}

			var update entities.DatasetUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				update.Name = &name
			}
			if flags.Changed("type") {
				update.Type = &datasetType
			}
			if flags.Changed("read-only") {
				update.ReadOnly = &readOnly
			}
			switch {
			case !flags.Changed("metadata"):
			case metadataFile == "none":
				empty := map[string]any{}
				update.Meta = &empty
			default:
				meta, err := readMetadata(metadataFile)
				if err != nil {
					return err
				}
				update.Meta = &meta
			}

			if update.IsEmpty() {
				return &ExitError{Code: 1, Message: "Nothing to update"}
			}

			return cliCtx.withGateway(cmd, func(ctx context.Context, g *client.Gateway) error {
				resp, err := g.PatchJSON(ctx, fmt.Sprintf("%s/project/%d/%d", apiBase, projectID, datasetID), update)
				if err != nil {
					return err
				}
				var dataset entities.Dataset
				if err := client.CheckResponse(resp, http.StatusOK, &dataset); err != nil {
					return err
				}
				return cliCtx.printer(cmd).Object(dataset)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New dataset name")
	cmd.Flags().StringVar(&datasetType, "type", "", "New dataset type")
	cmd.Flags().StringVar(&metadataFile, "metadata", "", "JSON file with new metadata, or \"none\" to clear it")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Mark the dataset read-only (--read-only=false to clear)")

	return cmd
}
