// Package sparse provides the compressed sparse column matrix type and the
// primitive linear-algebra routines (conversion, matrix-vector products,
// dot products, norms and index sorting) that the rest of this module's
// solver packages build on.
//
// The API intentionally stays close to gonum.org/v1/gonum/mat in spirit —
// a plain value type plus free functions rather than an interface
// hierarchy — but the storage is sparse throughout, since the solver's
// constraint matrices are never materialized densely.
package sparse
