// Package lifecycle guards process-wide resources of a download session.
//
// A Guard moves through Idle → Running → Stopping → Stopped. Start acquires
// the wake hold. Teardown runs exactly once, either when the finish predicate
// holds (OnAllJobsObserved) or on an explicit stop (RequestStop), and performs
// in order:
//
//  1. drain the worker pool, bounded by DrainTimeout (RequestStop cancels the
//     jobs first)
//  2. show the cleaning notice, then clear it
//  3. remove the scratch directory
//  4. release the wake hold
//  5. cancel the root context and run OnStopped
//
// On Linux the wake hold is a systemd-logind sleep inhibitor taken over the
// system D-Bus.
package lifecycle
