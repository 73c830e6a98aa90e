// Package infra contains technical adapters: stores, scenario files,
// publishers and metrics exporters. These packages should depend only on the
// interfaces defined in the core packages.
package infra
