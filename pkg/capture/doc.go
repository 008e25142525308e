// Package capture records and replays the frames of a connection.
//
// A capture file starts with the magic "BWCAP1" followed by entries encoded
// with the protocol's own primitives:
//
//	┌───────────────┬───────────┬──────────┬──────────┬──────────┬──────┐
//	│ Unix nanos    │ Direction │ State    │ ID       │ Length   │ Body │
//	│ (VarLong)     │ (u8)      │ (VarInt) │ (VarInt) │ (VarInt) │      │
//	└───────────────┴───────────┴──────────┴──────────┴──────────┴──────┘
//
// Bodies are stored after decompression and decryption, so a capture can be
// decoded with packets.Registry without the connection's keys.
//
// Finished captures can be shipped to a Sink: DiskSink for a local archive
// directory or S3Sink for a bucket.
package capture
