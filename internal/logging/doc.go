// Package logging provides structured logging for bankconnect.
//
// This package wraps a global zap logger with convenience functions for the
// few events worth recording: connection attempts and their outcomes, route
// changes, and node stream activity.
//
// # Silent By Default
//
// Logging is disabled unless a level is given explicitly or through the
// BANKCONNECT_LOG_LEVEL environment variable. The interactive UI always
// logs to a file, since anything written to stdout would corrupt the screen:
//
//	if err := logging.InitializeWithOptions(logging.Options{
//	    OutputPath: "/home/me/.config/bankconnect/bankconnect.log",
//	}); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Structured Logging
//
//	logging.Info("Bank persisted",
//	    zap.String("path", "http/143.110.137.54/80"),
//	    zap.String("nickname", "home bank"),
//	)
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. Initialization is not
// and must happen before the UI or any command starts.
package logging
