// Package cli implements the workload tracker command line client.
//
// Commands
//
//	login              prompt for credentials and store the session token
//	logout             revoke (when the server supports it) and forget the token
//	whoami             print the logged-in account
//	workloads list     list visible workloads, with filters
//	workloads get ID   show one workload
//
// Configuration comes from internal/client/config; the token is kept in a
// 0600 file under the user config dir.
package cli
