// Package bankclient provides an HTTP and websocket client for bank and
// validator nodes.
//
// Nodes serve their configuration document at GET /config. The client fetches
// and validates that document, classifying every failure into a typed
// BankError so callers can turn it into a short user-facing message:
//
//	client := bankclient.NewClient(addr)
//	cfg, err := client.GetBankConfig(ctx)
//	if err != nil {
//	    fmt.Println(bankclient.ShortMessage(err))
//	}
//
// # Error Classification
//
// Transport errors are classified as Timeout, ConnectionRefused, DNS or
// generic Network errors. Non-200 responses become HTTP errors, undecodable
// bodies become Parse errors, and a node of the wrong type becomes a
// Validation error. Only network errors and 5xx responses are retryable, and
// retries are disabled by default.
//
// # Status Streams
//
// Banks push crawl and clean status over websockets at /ws/crawl_status and
// /ws/clean_status. StatusStream.Subscribe follows one of them until the
// context is canceled.
package bankclient
