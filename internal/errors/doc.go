// Package errors provides the structured error type used across the combat engine.
//
// Every error carries a Code that maps onto gRPC and HTTP status codes, a
// user-facing message, an optional cause and optional metadata. Errors that
// callers are expected to branch on additionally carry a Reason, a stable
// snake_case tag naming the exact precondition that failed.
//
// # Basic Usage
//
//	err := errors.NotFound("session not found").WithMeta("session_id", id)
//	err := errors.InvalidArgumentf("unknown action type %q", t)
//
// Tagging a precondition failure:
//
//	return errors.InvalidArgument("not the actor's turn").
//	    WithReason(combat.ReasonNotActorTurn).
//	    WithMeta("actor_id", actorID)
//
// Wrapping preserves the code and reason of the wrapped error:
//
//	if err := repo.Save(ctx, input); err != nil {
//	    return errors.Wrap(err, "failed to archive session")
//	}
//
// # Error Checking
//
//	if errors.IsNotFound(err) { ... }
//	if errors.GetReason(err) == combat.ReasonSessionBusy { ... }
//
// # Engine taxonomy
//
// The engine reports failures with the following codes:
//   - InvalidArgument: a validation precondition of an action or vote failed;
//     session state is unchanged
//   - NotFound: unknown session or participant
//   - Aborted: the session lock could not be acquired in time; retry is safe
//   - FailedPrecondition: the request is illegal in the session's current state
//   - Internal: an invariant was violated; the request is aborted and logged
//   - Canceled / DeadlineExceeded: the caller's context ended while waiting
//
// # gRPC Integration
//
// ToGRPCError converts an Error into a status error carrying an
// errdetails.ErrorInfo whose Reason is the error's reason. FromGRPCError
// reverses the mapping on the client side.
package errors
