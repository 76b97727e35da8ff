// stepctl is a small operator tool for inspecting and driving a flow
// engine from the command line
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kode4food/argyll/worker/internal/config"
	"github.com/kode4food/argyll/worker/pkg/api"
	"github.com/kode4food/argyll/worker/pkg/builder"
)

var version = "dev"

var (
	engineURL string
	timeout   time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "stepctl",
		Short:         "Inspect and drive a flow engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&engineURL, "engine-url",
		envOrDefault("ENGINE_URL", config.DefaultEngineURL),
		"engine base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout",
		config.DefaultClientTimeout, "engine request timeout")

	rootCmd.AddCommand(
		newStepsCmd(),
		newFlowCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newStepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List the steps registered with the engine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, err := newClient().ListSteps(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(steps)
		},
	}
}

func newFlowCmd() *cobra.Command {
	flowCmd := &cobra.Command{
		Use:   "flow",
		Short: "Start flows and inspect their state",
	}
	flowCmd.AddCommand(newFlowStartCmd(), newFlowStateCmd())
	return flowCmd
}

func newFlowStartCmd() *cobra.Command {
	var flowID string
	var initJSON string

	cmd := &cobra.Command{
		Use:   "start <goal-step> [goal-step...]",
		Short: "Create and start a flow targeting the given goal steps",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := api.FlowID(flowID)
			if id == "" {
				id = builder.NewFlowID("stepctl")
			}

			init := api.Args{}
			if initJSON != "" {
				if err := json.Unmarshal(
					[]byte(initJSON), &init,
				); err != nil {
					return fmt.Errorf("invalid --init: %w", err)
				}
			}

			flow := newClient().NewFlow(id).WithInitialState(init)
			for _, goal := range args {
				flow = flow.WithGoal(api.StepID(goal))
			}

			if err := flow.Start(cmd.Context()); err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}

	cmd.Flags().StringVar(&flowID, "id", "",
		"flow ID (generated when omitted)")
	cmd.Flags().StringVar(&initJSON, "init", "",
		"initial flow state as a JSON object")
	return cmd
}

func newFlowStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state <flow-id>",
		Short: "Show the engine's state snapshot for a flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc := newClient().Flow(api.FlowID(args[0]))
			state, err := fc.GetState(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(state)
		},
	}
}

func newClient() *builder.Client {
	return builder.NewClient(engineURL, timeout)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func envOrDefault(key, value string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return value
}
