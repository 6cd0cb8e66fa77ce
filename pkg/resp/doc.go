/*
Package resp implements the wire-level subset of RESP2 zakros speaks: the
multi-bulk request form clients normally send, the inline command form
redis-cli falls back to, and the reply types a command handler can produce
(simple string, error, integer, bulk string, array, and the null bulk/array
variants).

This package intentionally knows nothing about command semantics — it is
the byte-level grammar described in the Redis protocol specification, kept
here as a small hand-rolled reader/writer over bufio since no vendored RESP
library is available to depend on instead (see DESIGN.md).
*/
package resp
