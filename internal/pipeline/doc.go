// Package pipeline runs one document through every stage: extract, generate,
// synthesize, caption and render, export, and call-to-action.
//
// Each run gets a uuid run ID and its own output directory. The run ID, the
// source document, and the current stage are stamped into the context so
// every log line can be traced back to a run.
package pipeline
