package optimizer

import (
	"math"
	"math/rand/v2"
)

// dense is a fully connected layer with row-major weights [out][in].
type dense struct {
	in, out int
	w       []float64
	b       []float64
	gw      []float64
	gb      []float64
}

func newDense(in, out int, gain float64, rng *rand.Rand) *dense {
	l := &dense{
		in:  in,
		out: out,
		w:   make([]float64, in*out),
		b:   make([]float64, out),
		gw:  make([]float64, in*out),
		gb:  make([]float64, out),
	}
	std := gain / math.Sqrt(float64(in))
	for i := range l.w {
		l.w[i] = rng.NormFloat64() * std
	}
	return l
}

func (l *dense) forward(x, y []float64) {
	for o := 0; o < l.out; o++ {
		sum := l.b[o]
		row := l.w[o*l.in : (o+1)*l.in]
		for i, v := range x {
			sum += row[i] * v
		}
		y[o] = sum
	}
}

// backward accumulates parameter gradients for dy and writes dx when non-nil.
func (l *dense) backward(x, dy, dx []float64) {
	for o := 0; o < l.out; o++ {
		g := dy[o]
		if g == 0 {
			continue
		}
		l.gb[o] += g
		row := l.gw[o*l.in : (o+1)*l.in]
		for i, v := range x {
			row[i] += g * v
		}
	}
	if dx == nil {
		return
	}
	for i := range dx {
		dx[i] = 0
	}
	for o := 0; o < l.out; o++ {
		g := dy[o]
		if g == 0 {
			continue
		}
		row := l.w[o*l.in : (o+1)*l.in]
		for i := range dx {
			dx[i] += g * row[i]
		}
	}
}

func (l *dense) zeroGrad() {
	clear(l.gw)
	clear(l.gb)
}

// mlp is a feed-forward network with tanh hidden layers and a linear head.
type mlp struct {
	layers []*dense
}

// trace keeps per-layer activations from a forward pass for backprop.
type trace struct {
	acts [][]float64
}

func newMLP(sizes []int, outGain float64, rng *rand.Rand) *mlp {
	m := &mlp{}
	for i := 0; i+1 < len(sizes); i++ {
		gain := math.Sqrt2
		if i+2 == len(sizes) {
			gain = outGain
		}
		m.layers = append(m.layers, newDense(sizes[i], sizes[i+1], gain, rng))
	}
	return m
}

func (m *mlp) forward(x []float64) ([]float64, trace) {
	t := trace{acts: make([][]float64, 0, len(m.layers)+1)}
	t.acts = append(t.acts, x)
	cur := x
	for i, l := range m.layers {
		next := make([]float64, l.out)
		l.forward(cur, next)
		if i < len(m.layers)-1 {
			for j, v := range next {
				next[j] = math.Tanh(v)
			}
		}
		t.acts = append(t.acts, next)
		cur = next
	}
	return cur, t
}

func (m *mlp) backward(t trace, dout []float64) {
	grad := dout
	for i := len(m.layers) - 1; i >= 0; i-- {
		l := m.layers[i]
		var dx []float64
		if i > 0 {
			dx = make([]float64, l.in)
		}
		l.backward(t.acts[i], grad, dx)
		if i > 0 {
			// tanh'(z) = 1 - tanh(z)^2, using the stored activation.
			act := t.acts[i]
			for j := range dx {
				dx[j] *= 1 - act[j]*act[j]
			}
		}
		grad = dx
	}
}

func (m *mlp) zeroGrad() {
	for _, l := range m.layers {
		l.zeroGrad()
	}
}

// params returns parallel slices of parameter and gradient buffers.
func (m *mlp) params() (values, grads [][]float64) {
	for _, l := range m.layers {
		values = append(values, l.w, l.b)
		grads = append(grads, l.gw, l.gb)
	}
	return values, grads
}

// adam implements the Adam update over a fixed set of parameter buffers.
type adam struct {
	lr, beta1, beta2, eps float64
	step                  int
	m, v                  [][]float64
}

func newAdam(values [][]float64, lr float64) *adam {
	a := &adam{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-5}
	for _, p := range values {
		a.m = append(a.m, make([]float64, len(p)))
		a.v = append(a.v, make([]float64, len(p)))
	}
	return a
}

func (a *adam) update(values, grads [][]float64) {
	a.step++
	c1 := 1 - math.Pow(a.beta1, float64(a.step))
	c2 := 1 - math.Pow(a.beta2, float64(a.step))
	for i, p := range values {
		g, m, v := grads[i], a.m[i], a.v[i]
		for j := range p {
			m[j] = a.beta1*m[j] + (1-a.beta1)*g[j]
			v[j] = a.beta2*v[j] + (1-a.beta2)*g[j]*g[j]
			p[j] -= a.lr * (m[j] / c1) / (math.Sqrt(v[j]/c2) + a.eps)
		}
	}
}

// clipGradNorm rescales grads in place so their global L2 norm is at most
// maxNorm and returns the norm before clipping.
func clipGradNorm(grads [][]float64, maxNorm float64) float64 {
	var sq float64
	for _, g := range grads {
		for _, v := range g {
			sq += v * v
		}
	}
	norm := math.Sqrt(sq)
	if maxNorm > 0 && norm > maxNorm {
		scale := maxNorm / (norm + 1e-6)
		for _, g := range grads {
			for j := range g {
				g[j] *= scale
			}
		}
	}
	return norm
}

func softmax(logits []float64) []float64 {
	peak := math.Inf(-1)
	for _, v := range logits {
		peak = math.Max(peak, v)
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

// sample draws an index from the categorical distribution probs.
func sample(probs []float64, rng *rand.Rand) int {
	u := rng.Float64()
	var acc float64
	for i, p := range probs {
		acc += p
		if u < acc {
			return i
		}
	}
	return len(probs) - 1
}
