// Package correlator turns the raw open/close notification stream into
// canonical events.
//
// State machine per (pid, fd) key:
//
//	Absent --open--> Open     handle created, Opened emitted immediately
//	Open --close---> Absent   handle removed with the match, Closed emitted
//	Open --evict---> Absent   capacity or age pressure; dropped, counted
//	                          stale, no synthetic close
//
// A close with no tracked open is forwarded as an unmatched Closed
// with the raw path fragment: the open may predate monitoring or have
// been dropped by the kernel buffer, and partial visibility is
// surfaced rather than hidden.
//
// Events are processed strictly in arrival order. Arrival order
// approximates kernel order across CPUs; no reordering by timestamp is
// attempted. This is a documented limitation, not a defect.
//
// The handle table and counters are guarded by a mutex so the
// correlator also holds up if a future consumer shards reads across
// CPU-local buffers.
package correlator
