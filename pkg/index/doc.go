// Package index defines the implementor table model.
//
// An implementor table maps crate names to the list of types in that crate
// which implement a particular trait. Tables are built once by the doc
// pipeline and are read-only afterwards; both key order and record order
// are insertion order and are preserved through every serialization
// boundary (JSON, fragment rendering, HTTP responses).
//
// The canonical wire shape of a record matches the generated documentation
// artifact:
//
//	{"text":"impl Drop for <a ...>Config</a>","synthetic":false,"types":["super::config::Config"]}
//
// Use [Table.Add] to build tables and [Table.MarshalJSON] /
// [UnmarshalTable] for order-preserving round trips.
package index
