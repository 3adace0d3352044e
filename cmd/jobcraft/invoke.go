package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobcraft/internal/llm"
	"github.com/jonathan/jobcraft/internal/observability"
	"github.com/jonathan/jobcraft/internal/retry"
)

var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Send one prompt to the configured LLM with retries",
	Long: "Send a prompt to the configured backend, retrying rate limits, server errors " +
		"and network failures, and print the reply. With --verbose the failed attempts " +
		"are listed.",
	RunE: runInvoke,
}

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List the supported LLM backends and their default models",
	Args:  cobra.NoArgs,
	RunE:  runBackends,
}

var (
	prompt   string
	jsonOnly bool
)

func init() {
	invokeCmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Prompt text (required)")
	invokeCmd.Flags().BoolVar(&jsonOnly, "json", false, "Print only the JSON object from the reply")

	_ = invokeCmd.MarkFlagRequired("prompt")

	rootCmd.AddCommand(invokeCmd)
	rootCmd.AddCommand(backendsCmd)
}

func runInvoke(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	inner, err := newCaller(ctx)
	if err != nil {
		return err
	}

	var history []retry.Attempt
	invoker := newInvoker(retry.WithOnAttempt(func(a retry.Attempt) {
		history = append(history, a)
	}))

	caller := llm.NewRetryingCaller(inner, invoker)
	defer caller.Close()

	resp, err := caller.Invoke(ctx, prompt)
	if cfg.Log.Verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintAttempts(history)
	}
	if err != nil {
		return err
	}

	text := resp.Text
	if jsonOnly {
		text = llm.CleanJSONBlock(text)
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)

	logger.Info().
		Str("backend", string(resp.Backend)).
		Str("model", resp.Model).
		Int("input_tokens", resp.InputTokens).
		Int("output_tokens", resp.OutputTokens).
		Dur("latency", resp.Latency).
		Msg("model call complete")
	return nil
}

func runBackends(cmd *cobra.Command, _ []string) error {
	for _, b := range llm.Backends() {
		marker := " "
		if string(b) == cfg.LLM.Backend {
			marker = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %-12s %s\n", marker, b, llm.DefaultModel(b))
	}
	return nil
}
