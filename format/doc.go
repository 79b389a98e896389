// Package format defines the closed code tables carried by a measurement
// header: the in-memory element type (CType), the SI unit (Unit), the
// power-of-ten scale (Scale) and the payload compression (CompressionType).
//
// The tables mirror a fixed, versioned memory map. Each code space is split
// into defined ranges and reserved ranges; codes in reserved ranges are
// rejected today so that future table versions can claim them without
// breaking older readers.
package format
