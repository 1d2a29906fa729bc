// Package signaling pairs websocket clients into two-person rooms and
// relays frames between them.
//
// A Hub owns every room. Each accepted connection becomes a Client whose
// ReadPump feeds frames to the hub and whose WritePump drains the frames
// the hub queues for it. Delivery is best effort: a frame for a client
// that is gone or backed up is dropped.
package signaling
