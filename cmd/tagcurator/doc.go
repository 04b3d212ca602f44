// Package main hosts the tagcurator command line.
//
// Commands load the album tag corpus from the Badger store, build the
// analyzer and consolidator through the DI container, and render results as
// tables (or JSON with --json). Merges are queued, applied, and persisted in
// a single invocation; rules added with `rule add` are stored and reloaded on
// every run.
package main
