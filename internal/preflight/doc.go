// Package preflight provides readiness checks for external binaries,
// filesystem paths, and services that Atomflow depends on.
//
// These checks run in two contexts:
//   - The "atomflow preflight" command calls RunAll before a batch of
//     calculations starts, so a missing binary or unwritable scratch
//     directory surfaces before hours of compute are wasted.
//   - Individual check functions (CheckMaterialsProject,
//     CheckDirectoryAccess) back the status output of other commands.
//
// Each check is gated by its config toggle -- unconfigured services are skipped.
package preflight
