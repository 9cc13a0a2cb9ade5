// Package app provides application bootstrap and lifecycle management for avaportal.
//
// The package turns a loaded configuration into a running portal. It owns the
// order in which components are built and the order in which they are torn
// down again.
//
// # Components
//
//  1. **Config (`config.go`)**: command line options of the serve command
//  2. **Bootstrap (`bootstrap.go`)**: logging setup and configuration loading
//  3. **Services (`services.go`)**: session store, identity provider client,
//     login state machine, backend gateway, document store and web server
//  4. **Server (`server.go`)**: the HTTP listener with graceful shutdown
//  5. **Check (`check.go`)**: the connectivity probes behind `avaportal check`
//
// # Bootstrap Sequence
//
//  1. Configure logging from the debug flag and the configured level/format
//  2. Load configuration (defaults, YAML file, dotenv file, environment)
//  3. Validate it; errors are kept and rendered by every page instead of
//     stopping the process
//  4. Validate storage separately; errors only disable the knowledge page
//  5. Build the services
//
// # Shutdown
//
// Run blocks until SIGINT or SIGTERM (or the context is cancelled), then
// drains in-flight requests for server.shutdownTimeout, stops the login
// state machine, closes the session store and flushes traces. Under systemd
// the process reports READY=1 once listening and STOPPING=1 when draining.
//
// # Usage
//
//	application, err := app.NewApplication(app.NewConfig(debug, configFile, envFile, listen))
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
package app
