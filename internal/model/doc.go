// Package model drives exhaustive exploration of a concurrent model.
//
// A Builder runs the model function once per interleaving. Every run gets
// a freshly reset Execution over a shared Path; after a clean run the
// allocations are leak-checked and the Path steps to the next unexplored
// interleaving. The search ends when the Path is exhausted, when a run
// finds a defect, or when a configured bound (permutations, duration,
// context) is hit.
//
// The Path can be checkpointed every CheckpointInterval iterations so a
// long search resumes where it stopped, and a failing run is reported with
// the Path snapshot that replays it.
package model
