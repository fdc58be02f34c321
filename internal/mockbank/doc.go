// Package mockbank serves a stand-in bank node and its primary validator for
// local use and tests.
//
// The bank answers GET /config with a BANK document whose primary validator
// points at a second listener, and pushes alternating crawl and clean status
// over websockets at /ws/crawl_status and /ws/clean_status.
//
// # Usage Example
//
//	srv, err := mockbank.New(&mockbank.Config{Port: 8000})
//	if err != nil {
//	    return err
//	}
//	// Blocks until ctx is canceled
//	return srv.Start(ctx)
//
// Connect to it with:
//
//	bankconnect connect 127.0.0.1 --port 8000
//
// Supplying CertPath and KeyPath serves both nodes over https. The client must
// trust the certificate.
package mockbank
