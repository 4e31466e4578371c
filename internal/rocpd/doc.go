// Package rocpd reads ROCm profiler (rocpd) SQLite databases.
//
// It owns the read-only connection, the support probe used for input
// negotiation, and the record loader that materializes every known
// record family into start/end point-events. The database is treated as
// a small, fully-loadable source: loading is one synchronous batch read,
// never a row stream.
package rocpd
