// Package analyzer implements the six dimension analyzers that make up
// a security scan: ssl, headers, tech, malware, ports, and whois.
//
// Each analyzer produces a normalized model.AnalysisResult for its
// dimension, either from a live probe (where one is configured) or from
// deterministic synthesis keyed to the target domain. Analyzers never
// abort the pipeline: internal failures are converted into a degraded
// zero-score result carrying the error and a corrective recommendation.
//
// The dimension set is closed and known at compile time. Analyzers are
// selected by the Dimension enum rather than open-ended registration,
// and the fixed weight table in this package defines both the pipeline
// execution order and each step's share of scan progress.
package analyzer
