// Package broadcast fans canonical records out to stream subscribers.
//
// A Hub drains one ingest.Channel and offers every record to each attached
// Subscriber through the subscriber's own bounded queue. The drain goroutine
// never waits on a subscriber: a full queue evicts that subscriber with
// ErrSlowSubscriber and its siblings keep receiving.
//
// While no subscriber is attached the hub leaves records in the ingest
// channel, so the channel's capacity bounds what a first subscriber can
// still observe and anything beyond it was already dropped at enqueue time.
//
// Example:
//
//	hub := broadcast.NewHub[geyserv1.TimestampedSlotUpdate]("slot", broadcast.Options{BufLen: 1024})
//	go hub.Run(ctx, slots)
//	err := hub.Stream(sink, nil, 5*time.Second)
//
// Service bundles the five category hubs and runs them under one errgroup.
package broadcast
