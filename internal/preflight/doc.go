// Package preflight provides readiness checks for the filesystem paths and
// external binaries scribe depends on.
//
// These checks run in two contexts:
//   - The batch runner calls RunAll before starting the pipeline. If any
//     check fails the run stops before a single download is attempted.
//   - The CLI "scribe check" command renders RunAll and CheckSystemDeps as
//     tables.
package preflight
