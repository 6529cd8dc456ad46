// Package plugin is the callback surface the validator drives.
//
// Plugin is an explicit two-state machine. Until Load succeeds every
// callback returns ErrNotLoaded; after Unload it returns to that state.
// Callbacks run on host threads and never block: they normalize the
// payload, update the high-water slot, consult the startup gate and try to
// enqueue. A full channel drops the record and reports success. A channel
// whose consumer is gone returns an *Error asking the host to unload the
// plugin.
//
// Example:
//
//	p := plugin.New(plugin.WithLogger(logger))
//	if err := p.OnLoad("/etc/geyserstream/config.json", false); err != nil {
//	    return err
//	}
//	defer p.OnUnload()
//	_ = p.UpdateSlotStatus(42, nil, replica.SlotStatus{Code: replica.SlotRooted})
package plugin
