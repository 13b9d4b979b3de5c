// Package app contains the core application logic. It wires a flow file
// into a runnable engine: the logger, the configuration model, the
// change-detector state backend, the node registry and the engine itself.
// Each command (run, plan, validate, levels, state) is a method on App, so
// the package stays independent of any entrypoint like a CLI.
package app
