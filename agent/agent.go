package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/canonmap/canonmap/fingerprint"
	"github.com/canonmap/canonmap/mapping"
)

const (
	defaultMaxIterations = 3
	minIterations        = 1
	maxIterations        = 5

	// fingerprintMaxArrayItems bounds fingerprint work when building
	// oracle prompts.
	fingerprintMaxArrayItems = 10

	// previewRows is the number of sample rows shown to the oracle.
	previewRows = 3
)

var (
	// ErrNoSpec indicates that no usable mapping spec could be built.
	ErrNoSpec = errors.New("unable to build mapping spec")
	// ErrInvalidSpec indicates a prepared spec that failed validation.
	ErrInvalidSpec = errors.New("invalid mapping spec")
)

// Oracle produces mapping spec text from a prompt. Implementations
// wrap a language model; the response may be raw JSON or JSON buried in
// prose, and is always passed through [mapping.Repair].
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options controls agent behavior.
type Options struct {
	// Enabled turns on the iterative refinement loop.
	Enabled bool
	// MaxIterations bounds refinement rounds, clamped to [1, 5].
	// Zero means the default of 3.
	MaxIterations int
}

// OptionsFromEnv reads agent options from MAPPING_AGENT_ENABLED and
// MAPPING_AGENT_MAX_ITERATIONS.
func OptionsFromEnv() Options {
	opts := Options{MaxIterations: defaultMaxIterations}

	switch strings.ToLower(strings.TrimSpace(os.Getenv("MAPPING_AGENT_ENABLED"))) {
	case "1", "true", "yes":
		opts.Enabled = true
	}

	if raw := os.Getenv("MAPPING_AGENT_MAX_ITERATIONS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			opts.MaxIterations = n
		}
	}

	return opts
}

func (o Options) normalized() Options {
	if o.MaxIterations == 0 {
		o.MaxIterations = defaultMaxIterations
	}

	o.MaxIterations = min(max(o.MaxIterations, minIterations), maxIterations)

	return o
}

// Prepare resolves the mapping spec to execute for a payload.
//
// partnerSpec may be a [*mapping.Spec], a [*mapping.FlatSpec], a
// generic JSON object in either form, or nil. Without the agent
// enabled the partner spec wins when present, then a one-shot oracle
// generation, then [mapping.AutoMap]. With the agent enabled the same
// base spec seeds the refinement loop. Prepare never fails: every
// fallback ends at an automatic spec.
func Prepare(
	ctx context.Context,
	partnerSpec any,
	payload any,
	targetSchema any,
	opts Options,
	oracle Oracle,
) *mapping.Spec {
	opts = opts.normalized()

	if opts.Enabled {
		return refine(ctx, partnerSpec, payload, targetSchema, opts, oracle)
	}

	if base := baseSpec(partnerSpec, payload); base != nil {
		return base
	}

	if generated := generate(ctx, payload, targetSchema, oracle); generated != nil {
		return generated
	}

	return mapping.AutoMap(payload, targetSchema)
}

// Run executes the full pipeline: prepare a spec, repair it against the
// target schema, validate, and execute it over the payload.
func Run(
	ctx context.Context,
	partnerSpec any,
	payload any,
	targetSchema any,
	opts Options,
	oracle Oracle,
) (map[string]any, error) {
	spec := Prepare(ctx, partnerSpec, payload, targetSchema, opts, oracle)

	targetPaths := mapping.CanonicalItemPaths(targetSchema)

	spec, _ = mapping.Repair(spec, mapping.WithAllowedTargets(targetPaths))
	if spec == nil {
		return nil, ErrNoSpec
	}

	if errs := mapping.Validate(spec); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSpec, strings.Join(errs, "; "))
	}

	executor, err := mapping.NewExecutor(spec, targetPaths)
	if err != nil {
		return nil, err
	}

	return executor.Execute(payload)
}

// baseSpec resolves a partner spec into nested form, or nil when none
// is usable.
func baseSpec(partnerSpec any, payload any) *mapping.Spec {
	switch v := partnerSpec.(type) {
	case *mapping.Spec:
		if v != nil && v.Mappings != nil {
			return v
		}

	case *mapping.FlatSpec:
		if v != nil && len(v.Mappings) > 0 {
			return mapping.FromFlat(v, mapping.ChooseItemsPath(payload))
		}

	case map[string]any:
		if flat := mapping.FlatFromValue(v); flat != nil {
			return mapping.FromFlat(flat, mapping.ChooseItemsPath(payload))
		}

		if spec := mapping.FromValue(v); spec != nil && spec.Mappings != nil {
			return spec
		}
	}

	return nil
}

// generate asks the oracle for a spec from scratch. Any failure yields
// nil so callers fall back to [mapping.AutoMap].
func generate(ctx context.Context, payload, targetSchema any, oracle Oracle) *mapping.Spec {
	if oracle == nil {
		return nil
	}

	prompt := MappingPrompt(
		payloadFingerprint(payload),
		targetSchema,
		mapping.ChooseItemsPath(payload),
	)

	text, err := oracle.Complete(ctx, prompt)
	if err != nil {
		slog.WarnContext(ctx, "mapping generation failed", slog.Any("error", err))

		return nil
	}

	if text == "" {
		return nil
	}

	spec, _ := mapping.Repair(text)

	return spec
}

// refine runs the iterative loop: repair, execute, summarize, and ask
// the oracle for improvements until the issues clear or the budget runs
// out.
func refine(
	ctx context.Context,
	partnerSpec any,
	payload any,
	targetSchema any,
	opts Options,
	oracle Oracle,
) *mapping.Spec {
	slog.InfoContext(ctx, "mapping agent starting",
		slog.Int("max_iterations", opts.MaxIterations))

	current := baseSpec(partnerSpec, payload)
	if current == nil {
		current = generate(ctx, payload, targetSchema, oracle)
	}

	if current == nil {
		current = mapping.AutoMap(payload, targetSchema)
	}

	targetPaths := mapping.CanonicalItemPaths(targetSchema)
	inputSchema := payloadFingerprint(payload)
	inputPreview := fingerprint.PreviewRows(payload, previewRows)
	itemsPath := mapping.ChooseItemsPath(payload)

	for range opts.MaxIterations {
		slog.InfoContext(ctx, "mapping agent iteration start")

		current, _ = mapping.Repair(current, mapping.WithAllowedTargets(targetPaths))
		if current == nil {
			current = mapping.AutoMap(payload, targetSchema)
		}

		issues, result := Summarize(current, payload, targetPaths)
		if !issues.HasIssues() {
			slog.InfoContext(ctx, "mapping agent converged with no remaining issues")

			return current
		}

		slog.InfoContext(ctx, "mapping agent issues",
			slog.Int("validation", len(issues.ValidationErrors)),
			slog.Int("missing_sources", len(issues.MissingSourceFields)),
			slog.Int("no_values", len(issues.FieldsWithNoValues)),
			slog.Int("sparse", len(issues.FieldsWithSparseValues)),
			slog.Bool("execution_error", issues.ExecutionError != ""))

		if oracle == nil {
			slog.WarnContext(ctx, "mapping agent stopping: no oracle configured")

			return current
		}

		if ctx.Err() != nil {
			return current
		}

		prompt := RefinementPrompt(RefinementPromptInput{
			InputSchema:   inputSchema,
			TargetSchema:  targetSchema,
			ItemsPath:     itemsPath,
			Spec:          current,
			Issues:        issues,
			InputPreview:  inputPreview,
			OutputPreview: outputPreview(result),
		})

		text, err := oracle.Complete(ctx, prompt)
		if err != nil {
			slog.WarnContext(ctx, "mapping agent stopping: oracle call failed",
				slog.Any("error", err))

			return current
		}

		if text == "" {
			slog.WarnContext(ctx, "mapping agent stopping: oracle returned empty response")

			return current
		}

		improved, _ := mapping.Repair(text, mapping.WithAllowedTargets(targetPaths))
		if improved == nil || improved.Equal(current) {
			slog.InfoContext(ctx, "mapping agent stopping: no improvements returned")

			return current
		}

		current = improved
	}

	slog.InfoContext(ctx, "mapping agent reached max iterations")

	return current
}

func payloadFingerprint(payload any) fingerprint.Fingerprint {
	extractor, err := fingerprint.NewExtractor(
		fingerprint.WithMaxItemsPerArray(fingerprintMaxArrayItems),
	)
	if err != nil {
		// Unreachable with a positive constant bound.
		panic(err)
	}

	return extractor.Extract(payload)
}

func outputPreview(result map[string]any) []map[string]any {
	if result == nil {
		return []map[string]any{}
	}

	return fingerprint.PreviewRows(result, previewRows)
}
