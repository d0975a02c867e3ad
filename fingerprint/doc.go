// Package fingerprint produces deterministic structural summaries of
// arbitrary JSON payloads.
//
// A fingerprint maps structural paths (a constrained JSONPath form, e.g.
// "$.items[].id") to type tags such as "string", "number", or
// "array<object>". Equal inputs always produce byte-identical fingerprints:
// object keys are visited in sorted order and the [Fingerprint] type
// marshals with sorted keys.
//
// [Analyze] bundles a fingerprint with up to three sample rows and
// per-field data-quality warnings, forming the payload-analysis report
// exposed to callers.
package fingerprint
