// Package engine orchestrates security scans.
//
// The engine runs the six dimension analyzers sequentially in weight-table
// order, tracking progress on the scan record after each step. A failing
// analyzer degrades its own dimension but never aborts the scan; only
// orchestration-level failures (for example a record that disappeared from
// the store) mark the whole scan failed.
//
// Aggregation is separated from orchestration: risk score, risk level,
// summary counts, and the compiled recommendation list are pure functions
// of the results map, so stored scans can be re-read and re-presented
// without re-running any analyzer.
package engine
