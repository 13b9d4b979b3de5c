// Package engine orchestrates a flow run over a registry of nodes.
//
// A run validates the dependency graph, asks nodes whether their inputs
// changed, plans the affected nodes (changed nodes plus everything
// downstream of them) in dependency order, and executes the plan while
// tracking each node through the PENDING -> RUNNING -> COMPLETED/FAILED
// state machine. Nodes that cannot run are marked SKIPPED: every planned
// node during a dry run, and dependents of a failure unless the run is
// forced.
//
// ExecuteFlow runs one node at a time. ExecuteFlowParallel runs the nodes of
// each execution level concurrently and applies the same failure rule at
// level boundaries.
package engine
