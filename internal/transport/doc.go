// Package transport owns the single WebSocket connection to the relay.
//
// It serialises outbound envelopes, queues them while the link is down,
// reconnects with capped exponential backoff, and fans inbound messages out
// through the dispatch router. One Conn is shared by every higher layer;
// construct it once in the composition root.
package transport
