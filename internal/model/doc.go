// Package model defines the core data structures shared across websentry.
//
// The central type is ScanRecord, which tracks the full lifecycle of one
// security scan: its status, progress, per-dimension analysis results,
// step errors, and the derived risk score and level. AnalysisResult and
// Recommendation describe the output of a single dimension analyzer.
//
// All types in this package are plain data with no behavior beyond
// construction, cloning, and serialization. Analysis and aggregation
// logic lives in the analyzer and engine packages.
package model
