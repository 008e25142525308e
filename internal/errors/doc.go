// Package errors provides coded, actionable errors for the blockwire CLI.
//
// Each error has a unique code (e.g., "E120") that maps to a short message
// and a longer explanation. Callers add a file location, a hint and an
// example before handing the error to Print:
//
//	err := errors.New("E122").
//	    WithLocation("blockwire.toml", 3, 8).
//	    WithSuggestion(`Use host:port, e.g. bind = "0.0.0.0:25565"`)
//
//	errors.Print(os.Stderr, err, errors.StylePretty)
//	// Output:
//	// ERROR E122: Invalid address
//	//
//	//   blockwire.toml:3:8
//	//
//	//      1 │ [server]
//	//      2 │ motd = "A blockwire server"
//	//   →  3 │ bind = "localhost"
//	//        │        ^
//	//
//	//   Hint: Use host:port, e.g. bind = "0.0.0.0:25565"
//
// Print also renders errors on one line (StyleCompact) or as JSON
// (StyleJSON); StyleFor picks one from the log format and the output.
//
// Codes are grouped by category: protocol (E060-E079), config (E120-E139)
// and cli/capture (E140-E159).
package errors
