// Package hcl provides the concrete HCL implementation of config.Loader.
// It is responsible for discovering flow files, parsing them, evaluating
// attribute expressions, and translating the result into config.Model.
//
// Expressions may reference the process environment through the `env`
// variable, e.g. `workdir = "${env.HOME}/finance"`.
package hcl
