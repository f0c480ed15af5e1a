// Textflow CLI — инструмент командной строки для отправки текста
// на durable-обработку через HTTP API.
//
// Использование:
//
//	textflow [--api-url URL] [--json] <command> [flags]
//
// Команды:
//
//	reverse   Развернуть строку
//	text      Обработать текст (summarize, rephrase, analyze, questions, expand)
//	workflow  Показать состояние instance
//	health    Здоровье зависимостей
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okrasov/textflow/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "textflow",
		Short:         "Textflow CLI — durable text processing tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewReverseCmd(clientFn, outputFn),
		cli.NewTextCmd(clientFn, outputFn),
		cli.NewWorkflowCmd(clientFn, outputFn),
		cli.NewHealthCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
