// Package colgen computes a near-minimal set of resource schedules (plans)
// covering every task by column generation.
//
// The controller seeds the plan pool with a greedy interval partition, then
// alternates between solving the relaxed covering master problem and pricing
// a new plan: the maximum-weight set of pairwise non-overlapping tasks under
// the current dual prices. When no plan has negative reduced cost the master
// is solved once more with integrality restored.
package colgen
