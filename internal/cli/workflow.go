package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewWorkflowCmd создаёт группу команд для instances.
func NewWorkflowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Inspect workflow instances",
	}

	cmd.AddCommand(
		newWorkflowShowCmd(clientFn, outputFn),
	)

	return cmd
}

func newWorkflowShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show WORKFLOW_ID",
		Short: "Show the current state of a workflow instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			workflow, err := client.GetWorkflow(args[0])
			if err != nil {
				return err
			}

			status := workflow.Status
			detail := workflow.Result
			if workflow.Error != "" {
				detail = workflow.Error
			}

			out.Print(
				[]string{"ID", "KIND", "STATUS", "ATTEMPT", "DETAIL"},
				[][]string{{
					workflow.ID,
					workflow.Kind,
					status,
					strconv.Itoa(workflow.Attempt),
					detail,
				}},
				workflow,
			)
			return nil
		},
	}
}
