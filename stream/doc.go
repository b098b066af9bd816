// Package stream binds recording conversations to open recognizer channels.
//
// The Registry is the sole owner of live sessions: at most one channel per
// conversation, created on open, destroyed on end, channel failure, or by
// the TTL sweeper. All map mutations happen under a single mutex; channel
// writes never do, since a write may block on recognizer backpressure.
//
// The Forwarder pushes framed audio into a session's channel, re-splitting
// frames that exceed the recognizer's payload limit while preserving the
// audio's temporal order. Write failures surface to the caller and leave
// the session open; only an explicit end or the sweeper closes it.
package stream
