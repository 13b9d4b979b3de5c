// Package stage turns `stage` blocks from a flow file into nodes that run an
// external command.
//
// A stage detects changes by fingerprinting its input files (SHA-256 of each
// file matched by the `inputs` globs) and comparing them with the
// fingerprints it persisted after its last successful run. A stage that has
// never succeeded, has changed inputs, or is missing one of its declared
// outputs reports a change.
//
// The command receives the run parameters as environment variables
// (FINFLOW_RUN_ID, FINFLOW_START, FINFLOW_END, ...) and may report counts
// back by writing a JSON object to the file named by FINFLOW_RESULT_FILE.
package stage
