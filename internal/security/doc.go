// Package security builds the configuration posture report exposed by
// Engine.SecurityReport.
//
// # What this package must NOT do
//
//   - Read configuration itself; callers pass a flattened [ReportInput].
package security
