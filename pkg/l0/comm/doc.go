// Package comm provides L0 protocol support.
package comm

// L0 protocol is communicated from the remote controller board to the
// driver boards over a point-to-point serial link (9600 8N1, no flow
// control).
//
// Every message is a fixed 12-byte frame. Framing is content-addressed:
// a 3-byte sync pattern, the 4-byte payload, a mirror copy of the payload
// and a trailer byte. There is no length prefix and no timing rule, so the
// receiver simply tests the trailing 12 bytes after every received byte and
// recovers from any misalignment by itself.
// There is no CRC/Checksum; the mirror copy is the only redundancy.
//
// Producer: remote controller board
// Consumer: driver boards
