package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// NewJobsCmd создаёт группу команд для управления job'ами.
func NewJobsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage scheduled jobs",
	}

	cmd.AddCommand(
		newJobsListCmd(clientFn, outputFn),
		newJobsGetCmd(clientFn, outputFn),
		newJobsPauseCmd(clientFn, outputFn),
		newJobsResumeCmd(clientFn, outputFn),
		newJobsStopCmd(clientFn, outputFn),
		newJobsEnableCmd(clientFn, outputFn),
		newJobsDisableCmd(clientFn, outputFn),
		newJobsTriggerCmd(clientFn, outputFn),
	)

	return cmd
}

func newJobsListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			jobs, err := client.ListJobs()
			if err != nil {
				return err
			}

			headers := []string{"ID", "STATUS", "RUNNING", "RETRIES", "NEXT_RUN", "LAST_ERROR"}
			rows := make([][]string, len(jobs))
			for i, j := range jobs {
				rows[i] = []string{
					j.ID, j.Status, strconv.FormatBool(j.IsRunning),
					strconv.Itoa(j.RetriesAttempted), formatTime(j.NextRunTime), j.LastError,
				}
			}

			out.Print(headers, rows, jobs)
			return nil
		},
	}
}

func newJobsGetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show job details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			job, err := client.GetJob(args[0])
			if err != nil {
				return err
			}

			printJob(out, job)
			return nil
		},
	}
}

func newJobsPauseCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "pause ID",
		Short: "Pause a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			job, err := client.PauseJob(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Job paused: %s", args[0]))
			printJob(out, job)
			return nil
		},
	}
}

func newJobsResumeCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "resume ID",
		Short: "Resume a paused job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			job, err := client.ResumeJob(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Job resumed: %s", args[0]))
			printJob(out, job)
			return nil
		},
	}
}

func newJobsStopCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "stop ID",
		Short: "Stop a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			job, err := client.StopJob(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Job stopped: %s", args[0]))
			printJob(out, job)
			return nil
		},
	}
}

func newJobsEnableCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "enable ID",
		Short: "Enable a job and reset its retry count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			job, err := client.EnableJob(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Job enabled: %s", args[0]))
			printJob(out, job)
			return nil
		},
	}
}

func newJobsDisableCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "disable ID",
		Short: "Disable a job manually",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			job, err := client.DisableJob(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Job disabled: %s", args[0]))
			printJob(out, job)
			return nil
		},
	}
}

func newJobsTriggerCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger ID",
		Short: "Trigger a job immediately, if it is currently runnable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			result, err := client.TriggerJob(args[0])
			if err != nil {
				return err
			}

			if !result.Triggered {
				out.Success(fmt.Sprintf("Job %s was not triggered (not in a runnable state)", args[0]))
			} else {
				out.Success(fmt.Sprintf("Job triggered: %s", args[0]))
			}
			printJob(out, &result.Job)
			return nil
		},
	}
}

func printJob(out *Output, job *JobResponse) {
	out.Print(
		[]string{"ID", "STATUS", "RUNNING", "RETRIES", "NEXT_RUN", "LAST_ERROR"},
		[][]string{{
			job.ID, job.Status, strconv.FormatBool(job.IsRunning),
			strconv.Itoa(job.RetriesAttempted), formatTime(job.NextRunTime), job.LastError,
		}},
		job,
	)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
