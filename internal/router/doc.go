// Package router keeps the screen history for the TUI.
//
// Paths look like URL paths. Two routes are known:
//
//	/connect
//	/bank/<protocol>/<ip>/<port>/overview
//
// Screens push paths; the app model listens for changes and swaps the active
// screen. Match turns a path back into a route name and its parameters.
package router
