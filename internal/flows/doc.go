// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunLogin, RunValidate, RunRefresh, etc.) accepts a typed
// dependency struct and returns results without side-effects beyond those
// dependencies. The Engine type stays thin and maps failure kinds to its
// public errors.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the account store, token manager,
// attempt tracker, challenge manager, audit dispatcher and metrics. They do
// NOT own any of these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import the root package.
//   - Perform I/O directly. All I/O is mediated through dependency funcs.
package flows
