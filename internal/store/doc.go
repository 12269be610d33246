// Package store keeps recent update outcomes in memory for the dashboard.
//
// The main components are:
//
//   - [Store]: interface defining storage and subscription operations
//   - [MemoryStore]: in-memory implementation with a bounded history and pub/sub
//   - [OutcomeRecord]: JSON representation of one outcome
//
// Subscribers receive outcomes via channels with non-blocking sends (slow
// subscribers miss outcomes rather than delay the hostname workers).
package store
