// Package tui implements the bankconnect terminal user interface.
//
// Built on Bubble Tea, it follows the Elm architecture: each screen is a model
// with Init, Update and View, and AppModel coordinates them.
//
// # Screens
//
//   - Connect (/connect): a form for protocol, IP address, port and nickname.
//     Submitting validates the form, connects to the bank and stores it. The
//     screen watches the active bank and moves to the overview as soon as one
//     is set, whether by its own submit, a resume or anything else.
//   - Overview (/bank/<protocol>/<ip>/<port>/overview): details of the active
//     bank with its crawl and clean status streamed over websockets.
//
// Navigation goes through internal/router. Screens push paths; AppModel
// notices the router's current path has changed after an update, closes the
// old screen and mounts the new one. Closing a screen unsubscribes it from
// application state and cancels its in-flight work, so late results are
// dropped rather than applied to a screen that is gone.
//
// All screens render through RenderApplicationContainer for a consistent
// header, content area and context-sensitive footer.
//
// # Framework Components
//
//   - bubbles/textinput: connect form fields
//   - bubbles/spinner: connect and scan progress
//   - bubbles/list: banks discovered over mDNS (ctrl+f on the connect screen)
//   - bubbles/help and bubbles/key: key bindings and footer help
//   - lipgloss: styling and layout
//
// # Usage Example
//
//	app := tui.NewAppModel(tui.AppDeps{...})
//	program := tea.NewProgram(app, tea.WithAltScreen())
//
//	final, err := program.Run()
//	if m, ok := final.(tui.AppModel); ok {
//	    m.Close()
//	}
package tui
