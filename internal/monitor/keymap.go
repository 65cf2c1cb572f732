package monitor

import "fmt"

// KeyMap defines the keyboard shortcuts displayed in the footer.
type KeyMap struct {
	Start    string
	Stop     string
	Toggle   string
	ClearLog string
	Refresh  string
	Quit     string
	Help     string
}

// DefaultKeyMap returns the default shortcut mapping.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Start:    "s",
		Stop:     "x",
		Toggle:   "p",
		ClearLog: "c",
		Refresh:  "r",
		Quit:     "q",
		Help:     "?",
	}
}

// HelpLine renders the footer help text.
func (k KeyMap) HelpLine() string {
	return fmt.Sprintf("[%s] start  [%s] stop  [%s] pause/resume  [%s] clear log  [%s] refresh  [%s] quit  [%s] help",
		k.Start, k.Stop, k.Toggle, k.ClearLog, k.Refresh, k.Quit, k.Help)
}

// HelpLines renders one line per shortcut for the help view.
func (k KeyMap) HelpLines() []string {
	return []string{
		fmt.Sprintf("%-6s open the start form", k.Start),
		fmt.Sprintf("%-6s stop the running job", k.Stop),
		fmt.Sprintf("%-6s pause or resume the running job", k.Toggle),
		fmt.Sprintf("%-6s clear the server log", k.ClearLog),
		fmt.Sprintf("%-6s poll progress now", k.Refresh),
		fmt.Sprintf("%-6s quit", k.Quit),
		fmt.Sprintf("%-6s toggle this help", k.Help),
	}
}
