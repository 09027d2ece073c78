// Package preflight provides readiness checks for the filesystem paths and
// external binaries shortreel depends on.
//
// The CLI runs them before a render so a missing base video or an unwritable
// output directory fails in seconds rather than after script generation and
// speech synthesis have already spent API quota.
package preflight
