// Package server exposes the capture-and-analysis pipeline over HTTP: the
// frame upload and end transports, the conversation lifecycle operations,
// diarization corrections, and analysis runs.
//
// The server is Gin-backed with h2c so HTTP/2 cleartext clients can share
// the port. Handlers translate AppError values into the standard error
// envelope; success payloads ride in a data envelope.
package server
