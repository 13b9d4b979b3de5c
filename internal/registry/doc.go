// Package registry is the catalog of pipeline nodes for a single run.
//
// A Registry is an explicit value owned by the caller: the CLI (or a test)
// builds one, registers every stage, and hands it to the engine. There is no
// package-level registry, so independent registries can coexist in tests.
//
// Before a run the registry is checked for structural problems: dependency
// names that reference no registered node, and dependency cycles. Both checks
// return their findings as data so the caller decides whether to abort.
package registry
