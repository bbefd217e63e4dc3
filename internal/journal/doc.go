// Package journal keeps the append-only log of executed file operations and
// reverses it on request.
//
// Each record carries the content digest taken before and after its
// operation. Undo walks the log newest first and only moves a file back when
// the destination still holds exactly the recorded content and the original
// path is free; everything else is reported as unavailable, never dropped
// silently.
package journal
