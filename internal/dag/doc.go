// Package dag derives the dependency graph from a snapshot of registered
// nodes and provides the algorithms the engine schedules with: topological
// ordering, execution levels, change-propagation closure and cycle
// detection.
//
// A Graph is built once per run and is read-only afterwards, so it is safe
// for concurrent readers. Only DetectCycles and Validate are defined for
// cyclic input; the ordering methods return ErrCycle instead.
package dag
