package epoch

import "github.com/roach88/snapledger/internal/partition"

// Oracle decides whether a partition family may be summed over one
// dimension. It is consulted for every dimension the planner would have to
// marginalize; the planner never infers exhaustiveness itself.
//
// observedValues are the distinct values of dimension, sorted, within one
// line of the candidate family: keys whose other dimensions all agree. The
// planner asks once per line. specified is the query's own dimension set,
// held fixed while marginalizing.
type Oracle interface {
	CanAggregate(ownerID, dimension string, observedValues []string, specified partition.DimensionSet) bool
}

// OracleFunc adapts a function to Oracle.
type OracleFunc func(ownerID, dimension string, observedValues []string, specified partition.DimensionSet) bool

// CanAggregate calls f.
func (f OracleFunc) CanAggregate(ownerID, dimension string, observedValues []string, specified partition.DimensionSet) bool {
	return f(ownerID, dimension, observedValues, specified)
}

// Never is an Oracle that refuses every marginalization.
var Never = OracleFunc(func(string, string, []string, partition.DimensionSet) bool { return false })
