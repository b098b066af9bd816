// Package sse streams freshly ingested transcript lines to listening
// clients over Server-Sent Events.
//
// A Hub routes each published line to the subscribers of its
// conversation. ServeSSE adapts one HTTP connection into a subscriber
// and streams events until the client disconnects.
package sse
