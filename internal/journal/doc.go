// Package journal writes the outcome log file.
//
// Every outcome becomes one line of the form
//
//	[2024-01-15 09:30:00 PST] [home.ddns.net] update succeeded: good 1.2.3.4
//
// with the timestamp rendered in a configured time zone. Writes happen on a
// background goroutine; recording never blocks the caller.
package journal
