// Package app wires the cgmdose components together for one process.
//
// # Initialization Flow
//
//  1. The caller loads configuration (config.Load) and applies flag overrides
//  2. NewApplication builds the logger and OpenTelemetry providers
//  3. Commands ask for a Pipeline, an Engine or a storage Gateway
//  4. Services are created with those collaborators injected
//  5. Stop pushes metrics to the Pushgateway and flushes everything
//
// # Usage
//
//	application, err := app.NewApplication(cfg, os.Stderr)
//	if err != nil {
//	    return err
//	}
//	defer application.Stop(context.Background())
//
//	gateway, err := application.OpenGateway(ctx, dryRun)
//
// The package never calls os.Exit; errors are returned to the command.
package app
