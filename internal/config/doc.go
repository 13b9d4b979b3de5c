// Package config defines the format-agnostic configuration model for a flow,
// along with the Loader interface for reading it from a source.
//
// The `config.Model` is the single source of truth for the `app` package when
// wiring settings and declared stages. Concrete loaders, such as for HCL, are
// provided in separate packages.
package config
