// Package vars describes the variables a telemetry producer publishes and
// decodes their values out of raw frame bytes.
//
// A producer advertises a table of fixed-size descriptor records. Build
// turns that table into a Catalog keyed by variable name. Each Descriptor
// carries the physical storage type (how many bytes, which encoding) and a
// semantic type (what the bytes mean: a plain integer, a track location, a
// set of flag bits). Extract reads a Value for one descriptor from a frame,
// and the To*/As/Get helpers convert that Value into Go types, enums and
// bitflag sets with range checking.
//
// Everything in this package works on byte slices that the caller already
// owns. Nothing here touches shared memory.
package vars
