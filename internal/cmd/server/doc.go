// Package serverrun exposes the Run entrypoint the CLI uses to host the
// relay outside a validator, handling config resolution and shutdown.
//
// Example:
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = serverrun.Run(ctx, serverrun.Options{ConfigPath: "/etc/geyserstream/config.json"})
package serverrun
