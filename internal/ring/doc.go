// Package ring implements the memory-mapped ring buffer that producers and
// consumers attach to.
//
// A ring is a single file (normally under /dev/shm) laid out as:
//
//	0x00  header   magic, version, slot count, data size, data offset,
//	               producer pid, put counter
//	0x40  slots    one {pid, get counter} pair per consumer
//	 ...  data     circular byte area, aligned to 64 bytes
//
// Counters are monotonic byte totals; positions in the data area are the
// counters modulo the data size. Every field shared between processes is
// accessed with sync/atomic. A producer never advances put further than the
// data size past the slowest attached consumer.
package ring
