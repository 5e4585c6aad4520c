package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"castos/internal/api"
	"castos/internal/casting"
	"castos/internal/queue"
	"castos/internal/queueaccess"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage casting jobs",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsRemoveCommand(ctx))
	jobsCmd.AddCommand(newJobsStatusCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]string, 0, len(statusFlags))
			for _, raw := range statusFlags {
				status, ok := queue.ParseStatus(strings.ToLower(strings.TrimSpace(raw)))
				if !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
				statuses = append(statuses, string(status))
			}

			return ctx.withAccess(cmd.Context(), func(access queueaccess.Access) error {
				jobs, err := access.List(cmd.Context(), statuses)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.JobListResponse{Jobs: jobs})
				}
				out := cmd.OutOrStdout()
				if len(jobs) == 0 {
					fmt.Fprintln(out, "No jobs found")
					return nil
				}
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						strconv.FormatInt(job.ID, 10),
						truncate(job.Title, 40),
						formatStatus(job.Status, colorize),
						formatAmount(job.Industry, job.BudgetCap),
						job.Industry,
						job.CreatedAt,
					})
				}
				fmt.Fprintln(out, renderTable(jobColumns, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (pending, completed, failed)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job and its cast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withAccess(cmd.Context(), func(access queueaccess.Access) error {
				job, err := access.Describe(cmd.Context(), id)
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %d not found", id)
				}
				if asJSON {
					return writeJSON(cmd, job)
				}
				return printJob(cmd, *job)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printJob(cmd *cobra.Command, job api.Job) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job %d: %s\n", job.ID, job.Title)
	fmt.Fprintf(out, "Status:   %s\n", formatStatus(job.Status, shouldColorize(out)))
	fmt.Fprintf(out, "Industry: %s\n", job.Industry)
	fmt.Fprintf(out, "Budget:   %s\n", formatAmount(job.Industry, job.BudgetCap))
	fmt.Fprintf(out, "Created:  %s\n", job.CreatedAt)
	if job.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:    %s\n", job.ErrorMessage)
	}
	if len(job.OptimizationResult) == 0 {
		return nil
	}
	var selections []casting.Selection
	if err := json.Unmarshal(job.OptimizationResult, &selections); err != nil {
		return fmt.Errorf("decode optimization result: %w", err)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderSelections(job.Industry, selections))
	return nil
}

func renderSelections(industry string, selections []casting.Selection) string {
	rows := make([][]string, 0, len(selections)+1)
	var total float64
	for _, sel := range selections {
		total += sel.Salary
		rows = append(rows, []string{
			sel.Role,
			sel.ActorName,
			formatAmount(industry, sel.Salary),
			formatAmount(industry, sel.BoxOffice),
			strconv.FormatFloat(sel.Rating, 'f', 1, 64),
			strconv.FormatFloat(sel.Risk, 'f', 2, 64),
		})
	}
	return renderTable(selectionColumns, rows, []string{"Total", "", formatAmount(industry, total)})
}

func newJobsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Delete jobs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseJobID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return ctx.withAccess(cmd.Context(), func(access queueaccess.Access) error {
				out := cmd.OutOrStdout()
				for _, id := range ids {
					removed, err := access.Remove(cmd.Context(), id)
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintf(out, "Removed job %d\n", id)
					} else {
						fmt.Fprintf(out, "Job %d not found\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newJobsStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show job counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd.Context(), func(access queueaccess.Access) error {
				stats, err := access.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, stats)
				}
				names := make([]string, 0, len(stats))
				for name := range stats {
					names = append(names, name)
				}
				sort.Strings(names)
				colorize := shouldColorize(cmd.OutOrStdout())
				rows := make([][]string, 0, len(names))
				for _, name := range names {
					rows = append(rows, []string{formatStatus(name, colorize), strconv.Itoa(stats[name])})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(statsColumns, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func parseJobID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q", raw)
	}
	return id, nil
}
