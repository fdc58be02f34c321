// Package appstate holds the live application state and the operation that
// changes it: connecting to a bank.
//
// State is an observable with a single selector, ActiveBankConfig. Screens
// subscribe when they are shown and unsubscribe when they are torn down:
//
//	unsubscribe := state.Subscribe(func(cfg *node.BankConfig) {
//	    // runs on every change, including clears (cfg == nil)
//	})
//	defer unsubscribe()
//
// Connector.ConnectAndStore is the only way a bank becomes active. It fetches
// the bank's /config, refreshes its primary validator, persists both through
// the store package, and finally publishes the bank to State. Observers react
// to that publication; the caller of ConnectAndStore only has to report
// failures.
package appstate
