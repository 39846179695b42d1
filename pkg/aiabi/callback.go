package aiabi

// Callback is the per-instance context block handed to an AI in its InitEvent
// and to Init. Function fields are always non-nil when built by the host.
type Callback struct {
	SkirmishAIID int
	Team         int
	AllyTeam     int

	// ShortName and Version identify the AI this callback belongs to.
	ShortName string
	Version   string

	// DataDir is the AI's private data directory, CommonDataDir the directory
	// shared across versions (empty when absent).
	DataDir       string
	CommonDataDir string

	// Options holds the validated option values chosen for this match.
	Options map[string]string

	// Info holds the descriptor properties of the AI.
	Info map[string]string

	CurrentFrame    func() int
	Log             func(msg string)
	SendTextMessage func(text string, zone int) int
}

// OptionValue returns the value of option key, or "" if it is unset.
func (c *Callback) OptionValue(key string) string {
	if c == nil || c.Options == nil {
		return ""
	}
	return c.Options[key]
}

// InfoValue returns the descriptor property key, or "" if unset.
func (c *Callback) InfoValue(key string) string {
	if c == nil || c.Info == nil {
		return ""
	}
	return c.Info[key]
}

// InterfaceCallback is the interface-scoped context handed to InitStatic.
type InterfaceCallback struct {
	InterfaceID   int
	ShortName     string
	Version       string
	DataDir       string
	CommonDataDir string
	Info          map[string]string

	Log func(msg string)
}
