package domain

import "time"

// Session store keys.
const (
	// KeyCredentials holds the JSON-encoded session credential.
	KeyCredentials = "credentials"
	// KeyModule holds the selected module number.
	KeyModule = "module"
)

const (
	// DefaultPollInterval is the truth table polling period.
	DefaultPollInterval = 3000 * time.Millisecond
	// DefaultInputPollInterval is the raw input polling period of the IO tester.
	DefaultInputPollInterval = 2000 * time.Millisecond
	// DefaultMaxInputs bounds the combination generator.
	DefaultMaxInputs = 16
	// RelayCount is the number of relays exposed by the device.
	RelayCount = 8
	// StudentDomain is appended to bare student ids at login.
	StudentDomain = "@student.its.ac.id"
)
