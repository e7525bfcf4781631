// Package credential persists the single PIN credential of an installation and
// implements create, verify, rotate, force-reset and remove on top of it.
//
// The record lives under one key of a store.Records backend as a versioned
// binary blob. Every operation holds the store mutex for its whole
// read-modify-write, so concurrent failed verifications cannot lose updates to
// the failure counter.
package credential
