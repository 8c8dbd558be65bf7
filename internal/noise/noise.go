// Package noise implements deterministic, seeded 2D/3D coherent noise and
// an fBm (fractal Brownian motion) helper layered on top of it. The
// implementation is a classic Perlin-lattice gradient noise: deterministic
// across platforms for a fixed seed, which is the only hard requirement;
// the exact noise family is otherwise unspecified.
package noise

import "math"

// Source is a seeded 2D/3D coherent noise generator producing values in
// roughly [-1, 1].
type Source struct {
	perm [512]int32
}

// NewSource builds a noise source from a seed, deterministically
// permuting a standard 256-entry gradient lattice with a small xorshift.
func NewSource(seed uint32) *Source {
	s := &Source{}
	var base [256]int32
	for i := range base {
		base[i] = int32(i)
	}

	x := seed
	if x == 0 {
		x = 0x9E3779B9
	}
	nextRand := func() uint32 {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		return x
	}
	for i := 255; i > 0; i-- {
		j := int(nextRand() % uint32(i+1))
		base[i], base[j] = base[j], base[i]
	}
	for i := 0; i < 512; i++ {
		s.perm[i] = base[i&255]
	}
	return s
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func grad2(hash int32, x, y float64) float64 {
	switch hash & 3 {
	case 0:
		return x + y
	case 1:
		return -x + y
	case 2:
		return x - y
	default:
		return -x - y
	}
}

func grad3(hash int32, x, y, z float64) float64 {
	h := hash & 15
	var u, v float64
	if h < 8 {
		u = x
	} else {
		u = y
	}
	if h < 4 {
		v = y
	} else if h == 12 || h == 14 {
		v = x
	} else {
		v = z
	}
	result := 0.0
	if h&1 == 0 {
		result += u
	} else {
		result -= u
	}
	if h&2 == 0 {
		result += v
	} else {
		result -= v
	}
	return result
}

// Noise2 samples deterministic 2D gradient noise in roughly [-1, 1].
func (s *Source) Noise2(x, y float64) float64 {
	xi := int32(math.Floor(x)) & 255
	yi := int32(math.Floor(y)) & 255
	xf := x - math.Floor(x)
	yf := y - math.Floor(y)

	u := fade(xf)
	v := fade(yf)

	aa := s.perm[int32(s.perm[xi])+yi]
	ab := s.perm[int32(s.perm[xi])+yi+1]
	ba := s.perm[int32(s.perm[xi+1])+yi]
	bb := s.perm[int32(s.perm[xi+1])+yi+1]

	x1 := lerp(u, grad2(aa, xf, yf), grad2(ba, xf-1, yf))
	x2 := lerp(u, grad2(ab, xf, yf-1), grad2(bb, xf-1, yf-1))
	return lerp(v, x1, x2)
}

// Noise3 samples deterministic 3D gradient noise in roughly [-1, 1].
func (s *Source) Noise3(x, y, z float64) float64 {
	xi := int32(math.Floor(x)) & 255
	yi := int32(math.Floor(y)) & 255
	zi := int32(math.Floor(z)) & 255
	xf := x - math.Floor(x)
	yf := y - math.Floor(y)
	zf := z - math.Floor(z)

	u := fade(xf)
	v := fade(yf)
	w := fade(zf)

	a := int32(s.perm[xi]) + yi
	aa := int32(s.perm[a]) + zi
	ab := int32(s.perm[a+1]) + zi
	b := int32(s.perm[xi+1]) + yi
	ba := int32(s.perm[b]) + zi
	bb := int32(s.perm[b+1]) + zi

	x1 := lerp(u, grad3(s.perm[aa], xf, yf, zf), grad3(s.perm[ba], xf-1, yf, zf))
	x2 := lerp(u, grad3(s.perm[ab], xf, yf-1, zf), grad3(s.perm[bb], xf-1, yf-1, zf))
	y1 := lerp(v, x1, x2)

	x1 = lerp(u, grad3(s.perm[aa+1], xf, yf, zf-1), grad3(s.perm[ba+1], xf-1, yf, zf-1))
	x2 = lerp(u, grad3(s.perm[ab+1], xf, yf-1, zf-1), grad3(s.perm[bb+1], xf-1, yf-1, zf-1))
	y2 := lerp(v, x1, x2)

	return lerp(w, y1, y2)
}

// FBMParams configures the fractal Brownian motion sum.
type FBMParams struct {
	Octaves     int
	Frequency   float64
	Lacunarity  float64
	Persistence float64
}

// FBM2 sums Octaves samples of Noise2 at increasing frequency (x
// Lacunarity per octave) and decreasing amplitude (x Persistence per
// octave), normalized so the result stays roughly within [-1, 1].
func (s *Source) FBM2(x, y float64, p FBMParams) float64 {
	sum := 0.0
	amp := 1.0
	freq := p.Frequency
	maxAmp := 0.0
	for i := 0; i < p.Octaves; i++ {
		sum += s.Noise2(x*freq, y*freq) * amp
		maxAmp += amp
		amp *= p.Persistence
		freq *= p.Lacunarity
	}
	if maxAmp == 0 {
		return 0
	}
	return sum / maxAmp
}

// FBM3 is the 3D counterpart of FBM2.
func (s *Source) FBM3(x, y, z float64, p FBMParams) float64 {
	sum := 0.0
	amp := 1.0
	freq := p.Frequency
	maxAmp := 0.0
	for i := 0; i < p.Octaves; i++ {
		sum += s.Noise3(x*freq, y*freq, z*freq) * amp
		maxAmp += amp
		amp *= p.Persistence
		freq *= p.Lacunarity
	}
	if maxAmp == 0 {
		return 0
	}
	return sum / maxAmp
}
