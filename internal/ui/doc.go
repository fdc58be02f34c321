// Package ui renders output for the non-interactive bankconnect commands.
//
// Unlike the TUI, these components follow a "print and exit" pattern:
//
//   - Header: command banner showing the operation and its parameters
//   - Result boxes: success, warning and failure with troubleshooting tips
//   - Table: aligned listing used by the banks and scan commands
//   - RunWithSpinner: a small Bubble Tea program that animates while a task runs
//   - Confirm: y/N prompt for destructive commands
//
// Example:
//
//	p := ui.NewPrinter(os.Stdout)
//	p.PrintHeader("Connect", "bankconnect connect 10.0.0.5", []ui.Detail{
//	    {Key: "Address", Value: "http://10.0.0.5"},
//	})
//
// Logging is controlled by BANKCONNECT_LOG_LEVEL. When it is unset, zap is
// silent so the styled output is not interleaved with log lines.
package ui
