// Package services defines the error taxonomy shared by the queue, executor,
// and undo pass, plus the typed clients for external collaborator tools.
//
// Key responsibilities:
//   - Sentinel markers and the Wrap helper so every failure names its stage,
//     operation, and path while staying classifiable with errors.Is.
//   - IsFatal, which separates run-aborting preconditions (configuration,
//     corrupt queue, busy executor) from per-entry failures.
//   - Subpackages checksum, dupes, and validator wrap the collaborator CLIs
//     behind synchronous interfaces with structured results.
package services
