package optimizer

import (
	"math"
	"math/rand/v2"

	"castos/internal/config"
)

// batch is one on-policy rollout.
type batch struct {
	inputs     [][]float64
	actions    []int
	logProbs   []float64
	values     []float64
	rewards    []float64
	dones      []bool
	advantages []float64
	returns    []float64
}

// trainStats summarizes a training run.
type trainStats struct {
	Timesteps      int
	Updates        int
	Episodes       int
	MeanReturn     float64
	ClipFraction   float64
	LastPolicyLoss float64
	LastValueLoss  float64
}

// trainer is a minimal PPO implementation with separate actor and critic
// networks over a discrete action space.
type trainer struct {
	cfg    config.Optimizer
	env    *Env
	actor  *mlp
	critic *mlp
	opt    *adam
	rng    *rand.Rand

	obs Observation

	params [][]float64
	grads  [][]float64
}

func newTrainer(cfg config.Optimizer, env *Env) *trainer {
	seed := uint64(cfg.Seed)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	hidden := max(cfg.HiddenUnits, 1)
	in := inputSize(env.Width())

	t := &trainer{
		cfg:    cfg,
		env:    env,
		actor:  newMLP([]int{in, hidden, hidden, env.Width()}, 0.01, rng),
		critic: newMLP([]int{in, hidden, hidden, 1}, 1, rng),
		rng:    rng,
	}
	av, ag := t.actor.params()
	cv, cg := t.critic.params()
	t.params = append(av, cv...)
	t.grads = append(ag, cg...)
	t.opt = newAdam(t.params, cfg.LearningRate)
	return t
}

func (t *trainer) input(obs Observation) []float64 {
	return encode(obs, t.env.Len(), t.env.BudgetCap())
}

// train runs rollouts and updates until at least TotalTimesteps environment
// steps have been collected.
func (t *trainer) train() trainStats {
	var stats trainStats
	t.obs = t.env.Reset()
	steps := max(t.cfg.RolloutSteps, 1)

	var episodeReturn, returnSum float64
	for stats.Timesteps < t.cfg.TotalTimesteps {
		b := batch{}
		for i := 0; i < steps; i++ {
			x := t.input(t.obs)
			logits, _ := t.actor.forward(x)
			probs := softmax(logits)
			action := sample(probs, t.rng)
			value, _ := t.critic.forward(x)

			next, reward, done := t.env.Step(action)
			episodeReturn += reward

			b.inputs = append(b.inputs, x)
			b.actions = append(b.actions, action)
			b.logProbs = append(b.logProbs, math.Log(math.Max(probs[action], 1e-12)))
			b.values = append(b.values, value[0])
			b.rewards = append(b.rewards, reward)
			b.dones = append(b.dones, done)

			if done {
				stats.Episodes++
				returnSum += episodeReturn
				episodeReturn = 0
				next = t.env.Reset()
			}
			t.obs = next
		}
		stats.Timesteps += steps

		last, _ := t.critic.forward(t.input(t.obs))
		t.computeAdvantages(&b, last[0])
		t.update(&b, &stats)
		stats.Updates++
	}
	if stats.Episodes > 0 {
		stats.MeanReturn = returnSum / float64(stats.Episodes)
	}
	return stats
}

// computeAdvantages fills generalized advantage estimates and returns.
func (t *trainer) computeAdvantages(b *batch, lastValue float64) {
	n := len(b.rewards)
	b.advantages = make([]float64, n)
	b.returns = make([]float64, n)
	var gae float64
	for i := n - 1; i >= 0; i-- {
		nextValue := lastValue
		if i+1 < n {
			nextValue = b.values[i+1]
		}
		nonTerminal := 1.0
		if b.dones[i] {
			nonTerminal = 0
		}
		delta := b.rewards[i] + t.cfg.Gamma*nextValue*nonTerminal - b.values[i]
		gae = delta + t.cfg.Gamma*t.cfg.GAELambda*nonTerminal*gae
		b.advantages[i] = gae
		b.returns[i] = gae + b.values[i]
	}
}

func (t *trainer) update(b *batch, stats *trainStats) {
	n := len(b.actions)
	size := min(max(t.cfg.MinibatchSize, 1), n)
	epochs := max(t.cfg.Epochs, 1)
	var clipped, seen int

	for epoch := 0; epoch < epochs; epoch++ {
		order := t.rng.Perm(n)
		for start := 0; start < n; start += size {
			idx := order[start:min(start+size, n)]
			adv := normalizedAdvantages(b, idx)
			scale := 1 / float64(len(idx))

			t.actor.zeroGrad()
			t.critic.zeroGrad()
			var policyLoss, valueLoss float64

			for k, i := range idx {
				x := b.inputs[i]
				action := b.actions[i]

				logits, actorTrace := t.actor.forward(x)
				probs := softmax(logits)
				logp := math.Log(math.Max(probs[action], 1e-12))
				ratio := math.Exp(logp - b.logProbs[i])

				unclipped := ratio * adv[k]
				bounded := clamp(ratio, 1-t.cfg.ClipRange, 1+t.cfg.ClipRange) * adv[k]
				policyLoss -= math.Min(unclipped, bounded) * scale

				// d(loss)/d(logp): only the unclipped branch carries gradient.
				var dlogp float64
				if unclipped <= bounded {
					dlogp = -ratio * adv[k] * scale
				} else {
					clipped++
				}
				seen++

				entropy := 0.0
				for _, p := range probs {
					if p > 0 {
						entropy -= p * math.Log(p)
					}
				}
				dlogits := make([]float64, len(probs))
				for j, p := range probs {
					onehot := 0.0
					if j == action {
						onehot = 1
					}
					dlogits[j] = dlogp * (onehot - p)
					if t.cfg.EntropyCoef != 0 && p > 0 {
						dlogits[j] += t.cfg.EntropyCoef * p * (math.Log(p) + entropy) * scale
					}
				}
				t.actor.backward(actorTrace, dlogits)

				value, criticTrace := t.critic.forward(x)
				diff := value[0] - b.returns[i]
				valueLoss += diff * diff * scale
				t.critic.backward(criticTrace, []float64{t.cfg.ValueCoef * 2 * diff * scale})
			}

			clipGradNorm(t.grads, t.cfg.MaxGradNorm)
			t.opt.update(t.params, t.grads)
			stats.LastPolicyLoss = policyLoss
			stats.LastValueLoss = valueLoss
		}
	}
	if seen > 0 {
		stats.ClipFraction = float64(clipped) / float64(seen)
	}
}

func normalizedAdvantages(b *batch, idx []int) []float64 {
	out := make([]float64, len(idx))
	var mean float64
	for k, i := range idx {
		out[k] = b.advantages[i]
		mean += out[k]
	}
	if len(idx) < 2 {
		return out
	}
	mean /= float64(len(idx))
	var variance float64
	for _, v := range out {
		variance += (v - mean) * (v - mean)
	}
	std := math.Sqrt(variance / float64(len(idx)-1))
	for k := range out {
		out[k] = (out[k] - mean) / (std + 1e-8)
	}
	return out
}

// greedy picks the most probable action for obs.
func (t *trainer) greedy(obs Observation) int {
	logits, _ := t.actor.forward(t.input(obs))
	return argmax(logits)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
