// Package value provides the JSON-like value model shared by the engine.
//
// Suite data arrives from YAML, JSON, CUE or Go literals, and command
// handlers return arbitrary Go values. This package gives all of them one
// vocabulary:
//   - Undefined is the absent-value sentinel (distinct from nil, which is null)
//   - TypeOf reports a JavaScript-style type tag ("object", "string", ...)
//   - Equal is deep structural equality with numbers compared numerically
//   - Compare orders numbers and strings, and refuses everything else
//   - MarshalCanonical produces deterministic JSON for snapshots and storage
//
// This package imports nothing internal. Every other internal package may
// import it.
package value
