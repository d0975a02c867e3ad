// Package agent prepares mapping specs for execution, optionally
// refining them through a language model oracle.
//
// [Prepare] resolves the best available spec for a payload: a stored
// partner spec (nested or legacy flat), a one-shot oracle generation,
// or an automatic fingerprint match. With the agent enabled it then
// iterates: repair the spec, execute it against the payload, summarize
// the remaining issues, and ask the [Oracle] for an improved spec until
// the issues clear or the iteration budget runs out. The loop only ever
// adopts an oracle response that survives [mapping.Repair] and differs
// from the current spec, so a misbehaving oracle degrades the result to
// the last good spec rather than breaking it.
//
// [Run] wraps the full pipeline: prepare, repair against the target
// schema, validate, and execute.
package agent
