// Package walk enumerates every node path reachable from a root of a
// NodeProvider.
//
// Three strategies share one contract: a root identifier goes in, a
// deduplicated ResultSet of paths comes out.
//
//   - StrategySequential walks depth-first on the calling goroutine and
//     returns paths in pre-order.
//   - StrategySharedSet fans out one task per child over a bounded pool and
//     records paths in a sharded concurrent set.
//   - StrategyInterned fans out the same way but records each path as an
//     intern.Symbol in a bitset, resolving back to strings at the end.
//
// The concurrent strategies sort their result, so for the same tree every
// strategy returns the same sorted set. A root that cannot be opened fails
// the whole call with a ROOT_UNAVAILABLE error; children that fail to open
// are pruned and faulty enumeration entries are skipped. Traversals are not
// cancellable and run to completion.
package walk
