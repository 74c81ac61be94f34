// Package harness runs the cases the engine registers.
//
// The engine talks to an Adapter and never to a concrete runner. Two
// adapters exist: Runner, a native sequential runner used by the CLI, and
// Testing, which maps groups and cases onto (*testing.T).Run so suites can
// run under go test.
//
// Registration and execution are separate phases for Runner. Group bodies
// run immediately and register cases into a tree; Run executes the
// before-hooks, then every case in registration order, then the
// after-hooks. Exactly one case runs at a time.
package harness
