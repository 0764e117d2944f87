// Package codebook holds the curated label→code tables of the MCAL controlled
// vocabularies.
//
// Tables are grouped into named revisions. Each revision is an embedded YAML
// file under revisions/, parsed once and immutable afterwards. Revisions are
// never merged: the same free-text label can map to a different code in
// another revision, and a caller picks exactly one revision to work with.
// Diff reports where two revisions disagree so the drift can be resolved by
// the vocabulary owners.
//
// A table matches labels exactly, character for character. Only a table that
// declares fold_case lowercases its input before matching, and such a table
// must itself be authored in lowercase.
package codebook
