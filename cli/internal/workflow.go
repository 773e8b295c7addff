package cli

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/fractal/internal/client"
	"github.com/devilmonastery/fractal/internal/domain/entities"
)

type applyResult struct {
	Status string `json:"status"`
	JobID  int64  `json:"job_id"`
}

func newWorkflowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Run workflows",
	}

	cmd.AddCommand(newWorkflowApplyCommand())

	return cmd
}

func newWorkflowApplyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "apply PROJECT_ID INPUT_DATASET_ID WORKFLOW_ID",
		Short: "Submit a workflow on an input dataset",
		Long: `Submit a workflow. The server runs it in the background and answers with a job id;
follow it with 'fractal job status JOB_ID'.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)

			ids := make([]int64, 3)
			for i, name := range []string{"PROJECT_ID", "INPUT_DATASET_ID", "WORKFLOW_ID"} {
				id, err := parseID(name, args[i])
				if err != nil {
					return err
				}
				ids[i] = id
			}

			return cliCtx.withGateway(cmd, func(ctx context.Context, g *client.Gateway) error {
				path := fmt.Sprintf("%s/project/apply/%d/%d/%d", apiBase, ids[0], ids[1], ids[2])
				resp, err := g.Post(ctx, path, nil, nil)
				if err != nil {
					return err
				}
				var result applyResult
				if err := client.CheckResponse(resp, http.StatusAccepted, &result); err != nil {
					return err
				}

				p := cliCtx.printer(cmd)
				if p.batch {
					p.Batch(result.JobID)
					return nil
				}
				return p.Object(result)
			})
		},
	}
}

func newJobCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Follow submitted workflows",
	}

	cmd.AddCommand(newJobStatusCommand())
	cmd.AddCommand(newJobListCommand())

	return cmd
}

func newJobStatusCommand() *cobra.Command {
	var doNotSeparateLogs bool

	cmd := &cobra.Command{
		Use:   "status JOB_ID",
		Short: "Show the state of a job",
		Long: `Show the state of a job. The job log is printed after the job record
unless --do-not-separate-logs is given. With --batch only the status is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			jobID, err := parseID("JOB_ID", args[0])
			if err != nil {
				return err
			}

			return cliCtx.withGateway(cmd, func(ctx context.Context, g *client.Gateway) error {
				resp, err := g.Get(ctx, fmt.Sprintf("%s/job/%d", apiBase, jobID), nil)
				if err != nil {
					return err
				}
				var job entities.Job
				if err := client.CheckResponse(resp, http.StatusOK, &job); err != nil {
					return err
				}

				p := cliCtx.printer(cmd)
				if p.batch {
					p.Batch(job.Status)
					return nil
				}

				if doNotSeparateLogs || job.Log == nil {
					return p.Object(job)
				}

				if err := p.Object(jobRecord(job)); err != nil {
					return err
				}
				p.Line("%s", *job.Log)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&doNotSeparateLogs, "do-not-separate-logs", false, "Keep the log inside the job record")

	return cmd
}

func newJobListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list [PROJECT_ID]",
		Short: "List your jobs, optionally only those of one project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)

			var projectID int64
			if len(args) == 1 {
				id, err := parseID("PROJECT_ID", args[0])
				if err != nil {
					return err
				}
				projectID = id
			}

			return cliCtx.withGateway(cmd, func(ctx context.Context, g *client.Gateway) error {
				resp, err := g.Get(ctx, apiBase+"/job/", nil)
				if err != nil {
					return err
				}
				var jobs []entities.Job
				if err := client.CheckResponse(resp, http.StatusOK, &jobs); err != nil {
					return err
				}

				if projectID != 0 {
					filtered := jobs[:0]
					for _, job := range jobs {
						if job.ProjectID == projectID {
							filtered = append(filtered, job)
						}
					}
					jobs = filtered
				}

				p := cliCtx.printer(cmd)
				if p.batch {
					ids := make([]string, len(jobs))
					for i, job := range jobs {
						ids[i] = strconv.FormatInt(job.ID, 10)
					}
					p.Batch(strings.Join(ids, " "))
					return nil
				}

				rows := make([][]string, len(jobs))
				for i, job := range jobs {
					finished := "-"
					if job.FinishedAt != nil {
						finished = p.Time(*job.FinishedAt)
					}
					rows[i] = []string{
						strconv.FormatInt(job.ID, 10),
						strconv.FormatInt(job.ProjectID, 10),
						strconv.FormatInt(job.WorkflowID, 10),
						string(job.Status),
						p.Time(job.SubmittedAt),
						finished,
					}
				}
				return p.Table("Job List",
					[]string{"Id", "Project", "Workflow", "Status", "Submitted", "Finished"},
					rows, jobs)
			})
		},
	}
}

// jobRecord is the job without its log
func jobRecord(job entities.Job) map[string]any {
	record := map[string]any{
		"id":               job.ID,
		"project_id":       job.ProjectID,
		"input_dataset_id": job.InputDatasetID,
		"workflow_id":      job.WorkflowID,
		"user_id":          job.UserID,
		"status":           job.Status,
		"submitted_at":     job.SubmittedAt,
	}
	if job.FinishedAt != nil {
		record["finished_at"] = job.FinishedAt
	}
	return record
}
