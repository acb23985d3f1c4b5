package cli

// Error codes for command-level failures. Fixture errors keep the codes
// assigned by the fixture package (E001-E007, E101-E105).
const (
	ErrCodeUnknownClass    = "E201" // --class names no class in the fixture
	ErrCodeUnknownInstance = "E202" // --delete names no instance in the fixture
	ErrCodeClearBusy       = "E203" // a ready check refused the clear
	ErrCodeReentrantClear  = "E204" // clear requested while one is running
	ErrCodeJournal         = "E205" // journal could not be opened or read
	ErrCodeScenarioFailed  = "E206" // one or more scenarios failed
)
