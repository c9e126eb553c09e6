// Package checkpoint persists exploration paths as JSON files and derives
// stable fingerprints for failing schedules.
//
// A checkpoint captures a Path positioned at the start of a run. Loading it
// resumes an exhaustive search where it stopped, or replays the exact run
// that produced a violation.
//
// Fingerprints hash the canonical JSON form of the decisions a run actually
// took, so the same bug found twice reports the same identity.
package checkpoint
