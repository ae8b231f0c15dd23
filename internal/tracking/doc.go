// Package tracking runs the location tracking session for one order at a time.
//
// A Session samples the agent's position on three independent schedules:
//
//   - the ephemeral tick refreshes the TTL-bearing live record so it never
//     expires while the order is in progress, falling back to the last
//     published position when no fresh fix is available;
//   - the durable tick refreshes the live record and writes to the durable
//     backend only when the agent has moved further than the configured
//     threshold since the last published position;
//   - the liveness tick asks the order-state provider whether the order has
//     reached its terminal status and ends the session when it has.
//
// A return to the foreground triggers one out-of-cycle sample with the
// durable tick policy.
//
// Every run is owned by a single worker goroutine that serializes ticks and
// lifecycle events. Start replaces any running session; Stop cancels the
// worker and waits for it to exit, after which no publish for that run can
// happen.
//
// Collaborators called from a tick (position source, publishers, liveness
// checker) end the session with StopContext, passing the context they were
// given. Calling Stop from a tick would wait on the worker that is running it.
package tracking
