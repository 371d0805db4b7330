// Package dispatch routes inbound envelopes to interested listeners.
//
// Two registration styles exist: persistent handlers keyed by routing key
// (On/Off, with Any as the wildcard), and one-shot waits that resolve with
// the next matching message or time out (WaitFor by routing key, WaitForID by
// correlation id). One-shot waits deregister themselves on every exit path so
// repeated waiting never leaks handlers.
package dispatch
