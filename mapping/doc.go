// Package mapping defines declarative mapping specifications and the
// machinery that repairs, validates, and executes them.
//
// A [Spec] transforms a partner payload into canonical output rows. Its
// mappings block names a root array of items and maps canonical target
// fields to source paths, optionally through value transforms and match
// tables. Broadcast entries evaluate once against the whole payload and
// fan out to every item; defaults fill targets that remain empty.
//
// Specs arrive from three places: stored partner records (either the
// nested form or the legacy flat list handled by [FromFlat]), language
// model output (free text, coerced by [Repair]), and [AutoMap], which
// derives a best-effort spec from a payload fingerprint. [Repair]
// normalizes any of these into an executable form, [Validate] reports
// structural problems, and [Executor] runs the result.
package mapping
