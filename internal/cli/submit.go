package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// readText возвращает текст из аргумента или stdin ("-").
func readText(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// printCompletion выводит результат завершённого instance.
// Терминальный статус не прячется за exit code 0: FAILED и
// TIMED_OUT возвращаются как ошибка команды.
func printCompletion(out *Output, completion *CompletionResponse) error {
	if completion.Status != "COMPLETED" {
		out.Print(
			[]string{"WORKFLOW_ID", "STATUS", "ATTEMPTS", "ERROR"},
			[][]string{{
				completion.WorkflowID,
				completion.Status,
				strconv.Itoa(completion.Attempts),
				completion.Error,
			}},
			completion,
		)
		return fmt.Errorf("workflow %s finished with status %s", completion.WorkflowID, completion.Status)
	}

	out.Success(fmt.Sprintf("Workflow %s completed in %d attempt(s), %dms",
		completion.WorkflowID, completion.Attempts, completion.ElapsedMs))

	if out.jsonMode {
		out.JSON(completion)
		return nil
	}
	out.Raw(completion.Result)
	return nil
}

// NewReverseCmd создаёт команду разворота строки.
func NewReverseCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "reverse [TEXT]",
		Short: "Reverse a string through the workflow engine",
		Long: `Submit a string for durable reversal and wait for the result.

Pass the text as an argument, or "-" (or no argument) to read stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			text, err := readText(args)
			if err != nil {
				return err
			}

			completion, err := client.Reverse(text)
			if err != nil {
				return err
			}

			return printCompletion(out, completion)
		},
	}
}

// NewTextCmd создаёт команду обработки текста.
func NewTextCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var operation string

	cmd := &cobra.Command{
		Use:   "text [TEXT]",
		Short: "Process text through the LLM workflow",
		Long: `Submit text for LLM processing and wait for the result.

Pass the text as an argument, or "-" (or no argument) to read stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			text, err := readText(args)
			if err != nil {
				return err
			}

			completion, err := client.Text(text, operation)
			if err != nil {
				return err
			}

			return printCompletion(out, completion)
		},
	}

	cmd.Flags().StringVarP(&operation, "operation", "o", "summarize",
		"Operation to apply (summarize, rephrase, analyze, questions, expand)")

	return cmd
}
