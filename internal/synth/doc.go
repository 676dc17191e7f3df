// Package synth provides deterministic pseudo-random synthesis keyed to
// a domain name.
//
// Analyzers that cannot probe a target live use this package to generate
// plausible analysis data that is fully reproducible: scanning the same
// domain twice always yields the same synthetic results. Seed derives a
// stable integer from the domain, and NextFloat maps (seed, salt) pairs
// to floats in [0,1) with no hidden state, so every derived value is a
// pure function of its inputs.
package synth
