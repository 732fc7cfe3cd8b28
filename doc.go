// Package filters implements a reactive filter store: a registry of text,
// options and compare fields whose values gate one another through depends-on
// relations, exclusion lists and exclusion groups. Stores round-trip through
// URL query parameters and persist as a single JSON blob in any state.KV.
package filters
