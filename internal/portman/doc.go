// Package portman is a client for the local port manager, the directory that
// maps service names to dynamically allocated TCP ports.
//
// Only the listing side of the protocol is used:
//
//	-> LIST
//	<- OK <n>
//	<- <port> <service> <user>   (n lines)
//
// The ring master is found by listing and filtering on RegistrarService.
package portman
