// Package expr is the restricted expression language used by reference
// strings and assertion keys.
//
// The grammar is deliberately small and statically defined:
//
//	expr    := term { "+" term }
//	term    := primary { suffix }
//	primary := ref | string | number | "true" | "false" | "null" | "undefined" | "(" expr ")"
//	suffix  := "." ident | "." digits | "[" expr "]" | "(" [ expr { "," expr } ] ")"
//	ref     := "$" wordchar { wordchar }
//
// Expressions are evaluated against an Env that only exposes sigil-prefixed
// keys. Bare identifiers are never looked up, so nothing outside the Env is
// reachable from suite data.
//
// Property paths (assertion keys such as "items[0].name") are parsed by
// ParsePath and applied with Lookup, which yields value.Undefined instead of
// failing when a segment is missing.
package expr
