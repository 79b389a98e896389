// Package stepflow routes sensor measurements from producers to process
// nodes.
//
// A measurement is a typed batch of samples: a 24-byte header naming the
// element type, SI unit, power-of-ten scale, source channel, sample count and
// timestamp, followed by a little-endian payload. Producers fill measurements
// in preallocated pool slots; each published measurement is validated and
// dispatched to every registered node whose filter chain matches it.
//
// # Core Features
//
//   - Header validation against the type, unit and scale code tables
//   - AND-combined filter chains over header fields and payload elements
//   - Manual nodes that run on the producer goroutine
//   - Threaded nodes with one worker and a bounded FIFO queue each
//   - Fixed-capacity sample pool with FIFO slot reuse and double-free
//     detection
//   - Self-checking wire frames with optional Zstd, S2 or LZ4 payload
//     compression
//
// # Basic Usage
//
//	cfg := config.Default()
//	p, _ := stepflow.New(cfg)
//	defer p.Close()
//
//	chain := filter.NewChain(
//	    filter.Condition{Field: filter.FieldUnit, Op: filter.OpEqual, Operand: filter.Uint(uint64(format.UnitDegreeCelsius))},
//	    filter.Condition{Field: filter.FieldValue, Op: filter.OpGreaterThan, Operand: filter.Int(80)},
//	)
//	p.Register(chain, process.ModeThreaded, raiseAlarm, process.WithName("overheat"))
//
//	h, _ := measurement.MakeHeader(format.CTypeFloat32, format.UnitDegreeCelsius, format.ScaleNone, 1)
//	s, m, err := p.Acquire(h)
//	if err != nil {
//	    return err // pool exhausted: drop or back off
//	}
//	m.SetFloat64(0, 85.5)
//	report, err := p.Publish(ctx, s)
//
// # Package Structure
//
// This package wires the building blocks together from a config.Config. For
// finer control use them directly: measurement (envelope, validation, wire
// frames), filter (chains and evaluation), process (registry and
// scheduling) and samplepool (slot allocation).
package stepflow
