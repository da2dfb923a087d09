package constants

// FileState is the canonical per-file pipeline state.
type FileState string

// Stable values (logged verbatim).
const (
	StateDiscovered  FileState = "DISCOVERED"  // enqueued from scan or notification
	StateStabilizing FileState = "STABILIZING" // waiting for size/mtime quiescence
	StateExtracting  FileState = "EXTRACTING"  // producing the still-image payload
	StateClassifying FileState = "CLASSIFYING" // vision model call in flight
	StateNaming      FileState = "NAMING"      // building the target filename
	StateRenaming    FileState = "RENAMING"    // atomic rename in progress
	StateDone        FileState = "DONE"        // terminal success
	StateFailed      FileState = "FAILED"      // terminal failure, file left in place
)
