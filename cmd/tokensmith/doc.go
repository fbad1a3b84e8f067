// Package main hosts the tokensmith CLI entrypoint and command graph.
//
// The Cobra command tree turns creature sources into MapTool token
// containers (build), bundles recorded containers into one delivery archive
// (delivery), inspects the build ledger (ledger list) and scaffolds
// configuration (config init, config validate). Configuration resolution,
// logger setup and the build directory lock live here so the internal
// packages stay free of process concerns.
package main
