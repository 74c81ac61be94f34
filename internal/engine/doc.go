// Package engine walks suite trees and runs their testcases.
//
// The Walker turns descriptions into harness groups and testcases into
// harness cases. A case body does the work of one leaf: it validates the
// testcase, resolves its input against the export store, invokes the
// command, checks the outcome and, on success, writes the export.
//
// Outcomes fall into three classes that never mix:
//
//   - framework errors (internal/fault) describe a broken suite and always
//     fail the case
//   - assertion failures (*assertion.Error) always fail the case
//   - application errors come from the command under test and pass only
//     when every assertion of the testcase is of kind error and matches
//
// The Classifier implements the last rule.
package engine
