// Package master defines the set-covering master problem solved by the column
// generation loop and provides a gonum based implementation. Solvers expose a
// relaxed mode, which yields dual prices for pricing, and an integer mode,
// which yields an implementable selection of plans. The two are kept apart
// because duals are undefined for the binary program.
package master
