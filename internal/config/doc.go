// Package config loads the comptonseq run configuration.
//
// Sources are layered in this order, later ones winning:
//
//  1. built-in defaults
//  2. an optional YAML file
//  3. COMPTONSEQ_ environment variables, with "__" separating levels
//     (COMPTONSEQ_DECAY__MODE=buildup sets decay.mode)
//
// The merged document is checked against the embedded CUE schema before it
// is decoded, so type errors and out-of-range values are reported with the
// offending key rather than as zero values.
package config
