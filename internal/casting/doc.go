// Package casting holds the domain types shared by every pipeline stage:
// characters extracted from a plot, the candidate performers sourced for
// them, and the per-role selections produced by the optimizer.
//
// Model output is loosely typed, so the JSON decoders here accept numbers
// written as strings ("$2,500,000"), trait lists written as a single
// comma-separated string, and similar quirks.
package casting
