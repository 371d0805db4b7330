// Package balance serves a cached view of per-asset account balances.
//
// The relay pushes balance_update events that keep the cache warm; reads hit
// the network only when an entry is missing, stale, or a refresh is forced.
// The read path never fails: on any error the last cached value (or zero) is
// returned instead. Format and Parse convert between smallest-unit integer
// strings and fixed-point display strings using integer arithmetic only.
package balance
