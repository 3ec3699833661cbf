// Package errors provides standardized error handling patterns for boundedring.
//
// # Overview
//
// Errors are sorted into three classes: Transient (the operation did not happen
// and may be attempted again), Invalid (bad input or configuration, do not retry)
// and Fatal (unrecoverable). Components wrap errors with their own name and the
// failing method so logs read the same everywhere.
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// Three wrapper functions provide classification-aware wrapping:
//
//	errors.WrapTransient(err, "Component", "Method", "action")
//	errors.WrapInvalid(err, "Component", "Method", "action")
//	errors.WrapFatal(err, "Component", "Method", "action")
//
// # Buffer Errors
//
// Two sentinels describe the ring buffer's whole error surface:
//
//   - ErrInvalidCapacity: construction was asked for a capacity of zero or less.
//     It is wrapped with WrapInvalid and no buffer is returned.
//   - ErrCancelled: a blocked Put or Take gave up because its context ended.
//     It is built with Cancelled, classified Transient, and also matches the
//     context's own error:
//
//	err := buf.Put(ctx, item)
//	if errors.IsCancelled(err) {
//	    // buffer state is exactly as before the call
//	}
//	stderrors.Is(err, context.DeadlineExceeded) // true when ctx timed out
//
// # Integration with errors.As/Is
//
// ClassifiedError implements Unwrap, so the standard library helpers see
// through every wrapper:
//
//	var ce *errors.ClassifiedError
//	if stderrors.As(err, &ce) {
//	    slog.Warn("operation failed", "component", ce.Component, "class", ce.Class)
//	}
//
// # Thread Safety
//
// Error variables are immutable and ClassifiedError values are safe to share
// across goroutines after creation.
package errors
