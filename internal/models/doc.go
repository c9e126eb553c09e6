// Package models is the catalog of built-in concurrency models.
//
// Each Model pairs a small concurrent program written against the skein
// API with the outcome a correct checker must report for it: either every
// execution passes, or some execution fails with a specific violation
// code. The catalog backs the skein command and doubles as an end-to-end
// regression suite: Result values are compared against golden files under
// testdata/golden.
package models
