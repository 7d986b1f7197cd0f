// Package operations runs the panel pipeline.
//
// Stages are registered on a Registry and executed by a Manager strictly in
// dependency order, one at a time:
//
//	classification → wdi, weo, wgi, ilo → panel → analysis
//
// The first stage error aborts the run. Every run is traced, measured and
// summarized in a PipelineManifest saved next to the analysis outputs.
package operations
