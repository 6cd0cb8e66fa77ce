/*
Package log provides structured logging for zakros using zerolog.

It wraps a single global zerolog.Logger, configured once via Init, plus a
handful of component loggers (WithComponent, WithNodeID, WithConn, WithTerm)
used to tag log lines emitted by the dispatcher, the Raft node, and per
connection goroutines without threading a logger through every call site.

Output is either JSON (production) or a console writer (development),
selected by Config.JSONOutput. Level filtering uses zerolog's global level so
disabled levels cost nothing.
*/
package log
