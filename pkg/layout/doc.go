// Package layout computes the placed geometry of one rack unit from a small
// parameter record. Every exported entry point is a pure function: the same
// RackConfig and Variant always produce the same Layout, and nothing is
// mutated after it is returned.
package layout
