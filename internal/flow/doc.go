// Package flow holds the run-scoped primitives shared by every pipeline
// stage and by the engine: the immutable run Context, the per-node Result a
// stage produces, and the Execution record with its status state machine.
package flow
