// Package audit records one append-only transcript entry per executed agent
// task: who ran it, what was asked, what came back and what it cost.
//
// Sinks never overwrite or delete records. MemorySink serves tests, FileSink
// writes a human-readable transcript and SQLiteSink keeps an insert-only table.
package audit
