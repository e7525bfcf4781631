// Package redisstore implements store.Backend on Redis.
//
// # Key layout
//
//	<prefix>:rec:<key>          STRING  credential and session blobs
//	<prefix>:col:<collection>   HASH    item id -> item data
//	<prefix>:settings           HASH    setting key -> value
//
// Wipe runs in a single MULTI/EXEC transaction so a partially cleared
// workspace is never observable.
package redisstore
