// Package ringmaster registers a ring buffer client with the ring master.
//
// Registration is a single exchange on a fresh TCP connection:
//
//	-> CONNECT <ring> producer <pid>
//	-> CONNECT <ring> consumer.<slot> <pid>
//	<- OK
//
// Any other reply is a rejection. On success the connection is handed back
// as a Lease and must stay open for as long as the client is attached; the
// ring master treats its closure as the client leaving.
package ringmaster
