// Package mintingorchestrator coordinates the minting pipeline for an
// authorized request: it uploads the content package to the content store,
// creates the parent and attachment artifact records, and drives the
// authorization registry to its processed state. Only the configured minting
// operator may invoke it, and at most one mint per request runs at a time.
package mintingorchestrator
