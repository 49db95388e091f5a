// Package buffer provides a reusable complex64 I/Q sample buffer type and
// pool for allocation-friendly acquisition. Acquisition and PSD code accept
// raw []complex64 slices; Buffer is an optional convenience that helps
// callers manage allocation and reuse in hot paths.
package buffer
