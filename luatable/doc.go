// Package luatable reads the Lua table literals the MineOS App Market
// serves as response bodies and turns them into plain Go values.
//
// The reader covers the subset the market actually emits: nested table
// constructors, string/number/boolean/nil literals, `name = value` and
// `[key] = value` entries, positional entries, line comments, and the
// common string escapes. Record-like tables become map[string]any, pure
// array tables become []any, and numbers become float64, so the result has
// the same shapes encoding/json produces and can be re-marshaled for strict
// struct decoding.
package luatable
