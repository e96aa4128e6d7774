// Package family groups an owner's content addresses into signature
// families: the connected components of registry entries under active
// equivalence links.
//
// Families are recomputed on demand and never stored. Given the same
// registry and edge snapshot, Aggregate returns the same family ids in the
// same order.
package family
