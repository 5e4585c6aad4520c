// Package preflight provides readiness checks for the paths and generative
// services castos depends on.
//
// The daemon runs RunAll once at startup and logs each result; failures are
// reported but do not stop the daemon, since jobs fail individually with a
// recorded error when a service is unreachable.
package preflight
