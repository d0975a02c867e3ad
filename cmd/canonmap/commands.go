package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/canonmap/canonmap/agent"
	"github.com/canonmap/canonmap/agent/openai"
	"github.com/canonmap/canonmap/fingerprint"
	"github.com/canonmap/canonmap/mapping"
)

func newAnalyzeCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "analyze [flags] <payload>",
		Short: "Report payload structure, sample rows, and data issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			payload, err := readValue(args[0])
			if err != nil {
				return err
			}

			return writeJSON(output, fingerprint.Analyze(payload))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file path (- for stdout)")

	return cmd
}

func newAutomapCmd() *cobra.Command {
	var target, output string

	cmd := &cobra.Command{
		Use:   "automap [flags] <payload>",
		Short: "Generate a mapping spec by matching payload fields to the target schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			payload, err := readValue(args[0])
			if err != nil {
				return err
			}

			targetSchema, err := readValue(target)
			if err != nil {
				return err
			}

			return writeJSON(output, mapping.AutoMap(payload, targetSchema))
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "target schema file (JSON or YAML)")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file path (- for stdout)")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func newRepairCmd() *cobra.Command {
	var target, output string

	cmd := &cobra.Command{
		Use:   "repair [flags] <spec>",
		Short: "Normalize a mapping spec, logging each applied repair",
		Long: `repair accepts a mapping spec as JSON, YAML, or free text with a JSON object
buried in it (typical model output), and emits the normalized nested form.
With --target, unknown target fields are dropped and missing ones backfilled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			specOrText, err := specInput(args[0])
			if err != nil {
				return err
			}

			var opts []mapping.RepairOption

			if target != "" {
				targetSchema, err := readValue(target)
				if err != nil {
					return err
				}

				opts = append(opts,
					mapping.WithAllowedTargets(mapping.CanonicalItemPaths(targetSchema)))
			}

			repaired, repairs := mapping.Repair(specOrText, opts...)
			if repaired == nil {
				return fmt.Errorf("%w: no mapping spec found in %s", ErrReadInput, args[0])
			}

			for _, msg := range repairs {
				slog.Info("repair", slog.String("change", msg))
			}

			return writeJSON(output, repaired)
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "target schema file (JSON or YAML)")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file path (- for stdout)")

	return cmd
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [flags] <spec>",
		Short: "Check a mapping spec against the nested dialect contracts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := readValue(args[0])
			if err != nil {
				return err
			}

			problems := mapping.Validate(mapping.FromValue(value))
			for _, problem := range problems {
				fmt.Fprintln(cmd.OutOrStdout(), problem)
			}

			if len(problems) > 0 {
				return fmt.Errorf("mapping spec has %d problem(s)", len(problems))
			}

			return nil
		},
	}

	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		specPath, target, output string
		model, apiKey            string
		agentEnabled             bool
		maxIterations            int
	)

	envOpts := agent.OptionsFromEnv()

	cmd := &cobra.Command{
		Use:   "run [flags] <payload>",
		Short: "Prepare a mapping spec and execute it over the payload",
		Long: `run resolves a mapping spec (partner spec, model generation, or automatic
matching), repairs and validates it against the target schema, and executes it
over the payload. With --agent the spec is iteratively refined using the
configured model until the detected issues clear.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readValue(args[0])
			if err != nil {
				return err
			}

			targetSchema, err := readValue(target)
			if err != nil {
				return err
			}

			var partnerSpec any

			if specPath != "" {
				partnerSpec, err = readValue(specPath)
				if err != nil {
					return err
				}
			}

			var oracle agent.Oracle

			if model != "" {
				client, err := openai.New(
					openai.WithModel(model),
					openai.WithAPIKey(apiKey),
				)
				if err != nil {
					return err
				}

				oracle = client
			}

			opts := agent.Options{Enabled: agentEnabled, MaxIterations: maxIterations}

			result, err := agent.Run(cmd.Context(), partnerSpec, payload, targetSchema, opts, oracle)
			if err != nil {
				return err
			}

			return writeJSON(output, result)
		},
	}

	cmd.Flags().StringVarP(&specPath, "spec", "s", "", "partner mapping spec file (JSON or YAML)")
	cmd.Flags().StringVarP(&target, "target", "t", "", "target schema file (JSON or YAML)")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file path (- for stdout)")
	cmd.Flags().StringVar(&model, "model", "", "chat model for spec generation and refinement")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key (defaults to OPENAI_API_KEY)")
	cmd.Flags().BoolVar(&agentEnabled, "agent", envOpts.Enabled, "enable the iterative mapping agent")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", envOpts.MaxIterations, "maximum agent refinement rounds")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func newSchemaCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "schema [flags] <target>",
		Short: "Export a target schema as JSON Schema (Draft 7)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			targetSchema, err := readValue(args[0])
			if err != nil {
				return err
			}

			return writeJSON(output, mapping.ExportSchema(targetSchema))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file path (- for stdout)")

	return cmd
}

// specInput reads a mapping spec input. Flat-dialect specs convert to the
// nested form; inputs that fail to decode pass through as raw text so Repair
// can dig a JSON object out of surrounding prose.
func specInput(path string) (any, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}

	value, err := decodeValue(data)
	if err != nil {
		return string(data), nil
	}

	if m, ok := value.(map[string]any); ok {
		if flat := mapping.FlatFromValue(m); flat != nil {
			return mapping.FromFlat(flat, mapping.ChooseItemsPath(nil)), nil
		}
	}

	return value, nil
}
