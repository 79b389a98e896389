// Package measurement defines the measurement envelope: a fixed header that
// describes a batch of homogeneous samples, plus the raw little-endian payload
// holding them.
//
// # Header Layout
//
// The header is 24 bytes, little-endian:
//
//	Bytes  | Field        | Type   | Description
//	-------|--------------|--------|------------------------------------------
//	0      | Type         | uint8  | format.CType, element representation
//	1      | Scale        | int8   | format.Scale, power-of-ten exponent
//	2-3    | Unit         | uint16 | format.Unit, SI unit code
//	4-5    | Flags        | uint16 | compression (bits 0-3), reserved (4-7), user (8-15)
//	6-7    | Source       | uint16 | producing sensor channel
//	8-11   | SampleCount  | uint32 | number of elements
//	12-15  | PayloadSize  | uint32 | element width * SampleCount
//	16-23  | Timestamp    | int64  | Unix microseconds of the first sample
//
// # Validation
//
// ValidateHeader rejects undefined and reserved code-table values,
// ExpectedPayloadSize derives the payload length from the type code, and
// ValidatePayloadSize rejects any length that differs from it. Validation
// has no side effects; callers decide whether to drop or repair.
//
// # Wire Frame
//
// Marshal and Unmarshal convert a measurement to a self-checking frame for
// whatever transport a caller uses:
//
//	┌──────────────────────────────┐
//	│ Header (24 bytes)            │
//	├──────────────────────────────┤
//	│ Stored length (uint32)       │
//	├──────────────────────────────┤
//	│ Payload, compressed per Flags│
//	├──────────────────────────────┤
//	│ xxHash64(header, payload)    │
//	└──────────────────────────────┘
package measurement
