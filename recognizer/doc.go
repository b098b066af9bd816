// Package recognizer defines the interface to the external streaming
// speech-recognition service.
//
// A Provider opens one duplex Channel per recording session. Audio chunks
// go out through Write in strict order; transcript events come back on the
// Events channel out-of-band. The recognizer itself is an external black
// box; this package only models the wire contract.
package recognizer
