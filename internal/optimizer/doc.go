// Package optimizer selects one candidate per character by training a small
// clipped-objective actor-critic policy (PPO) from scratch for each job and
// rolling it out greedily.
//
// The environment visits characters in extraction order. Each observation
// exposes the current character's candidates as a fixed number of tagged
// slots, the width being the longest candidate list in the job. Reward is
// zero until the last character is assigned, then the whole cast is scored.
//
// Training is CPU-bound; Pool bounds how many jobs train at once,
// independently of any I/O concurrency elsewhere.
package optimizer
