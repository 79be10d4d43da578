package capture

import (
	"image"
	"math"
	"sync"
)

const flatEpsilon = 1e-6

// lumaFrame stores per-pixel luminance of a frame and its summed-area tables
// (integral images) for O(1) window sum and variance queries.
type lumaFrame struct {
	gray       []float64
	integral   []float64
	integralSq []float64
	W, H       int
}

// templateLuma caches the opaque pixels of a template with their statistics.
// Pixels with alpha==0 are left out entirely, so sums and variances are
// computed over the visible shape only.
type templateLuma struct {
	gray   []float64
	xs, ys []int
	masked bool
	W, H   int
	n      float64
	mean   float64
	std    float64
}

// NCCMatcher is a single-scale normalized cross-correlation template matcher.
// Stride sets the coarse scan step; positions around the coarse best are
// refined at step 1.
type NCCMatcher struct {
	Stride int

	mu    sync.Mutex
	cache map[image.Image]*templateLuma
}

// NewNCCMatcher returns a matcher with the given coarse stride (min 1).
func NewNCCMatcher(stride int) *NCCMatcher {
	return &NCCMatcher{Stride: max(1, stride), cache: map[image.Image]*templateLuma{}}
}

// Match searches frame for tmpl. The returned score is clamped to [0,1] and
// the match is accepted when it reaches threshold. A template larger than the
// frame is simply not found. A NaN threshold is invalid input.
func (m *NCCMatcher) Match(frame *image.RGBA, tmpl image.Image, threshold float64) (Result, error) {
	if frame == nil || tmpl == nil || math.IsNaN(threshold) {
		return Result{}, ErrInvalidInput
	}
	fb, tb := frame.Bounds(), tmpl.Bounds()
	if fb.Empty() || tb.Empty() {
		return Result{}, ErrInvalidInput
	}
	if tb.Dx() > fb.Dx() || tb.Dy() > fb.Dy() {
		return NotFound(0), nil
	}
	tp := m.template(tmpl)
	if tp.n == 0 {
		return Result{}, ErrInvalidInput
	}
	lf := newLumaFrame(frame)

	var x, y int
	var score float64
	if tp.std <= flatEpsilon {
		var ok bool
		if x, y, ok = tp.findFlat(lf); ok {
			score = 1
		}
	} else {
		x, y, score = tp.scan(lf, max(1, m.Stride))
	}
	score = math.Max(0, math.Min(1, score))
	if score < threshold {
		return NotFound(score), nil
	}
	return Result{
		Found:      true,
		Box:        image.Rect(x, y, x+tp.W, y+tp.H),
		Confidence: score,
	}, nil
}

func (m *NCCMatcher) template(tmpl image.Image) *templateLuma {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cache == nil {
		m.cache = map[image.Image]*templateLuma{}
	}
	if tp := m.cache[tmpl]; tp != nil {
		return tp
	}
	tp := newTemplateLuma(tmpl)
	m.cache[tmpl] = tp
	return tp
}

func newTemplateLuma(tmpl image.Image) *templateLuma {
	b := tmpl.Bounds()
	w, h := b.Dx(), b.Dy()
	tp := &templateLuma{W: w, H: h}
	var sum, sum2 float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bb, a := tmpl.At(b.Min.X+x, b.Min.Y+y).RGBA()
			if a == 0 {
				tp.masked = true
				continue
			}
			v := luma(float64(r>>8), float64(g>>8), float64(bb>>8))
			tp.gray = append(tp.gray, v)
			tp.xs = append(tp.xs, x)
			tp.ys = append(tp.ys, y)
			sum += v
			sum2 += v * v
		}
	}
	tp.n = float64(len(tp.gray))
	if tp.n == 0 {
		return tp
	}
	tp.mean = sum / tp.n
	if v := (sum2 - sum*sum/tp.n) / tp.n; v > 0 {
		tp.std = math.Sqrt(v)
	}
	return tp
}

// scan does the coarse pass and then refines around the best window.
func (tp *templateLuma) scan(lf *lumaFrame, stride int) (bestX, bestY int, best float64) {
	best = -1
	maxX, maxY := lf.W-tp.W, lf.H-tp.H
	for y := 0; y <= maxY; y += stride {
		for x := 0; x <= maxX; x += stride {
			if s := tp.score(lf, x, y); s > best {
				best, bestX, bestY = s, x, y
			}
		}
	}
	if stride == 1 {
		return bestX, bestY, best
	}
	cx, cy := bestX, bestY
	for y := max(0, cy-stride+1); y <= min(maxY, cy+stride-1); y++ {
		for x := max(0, cx-stride+1); x <= min(maxX, cx+stride-1); x++ {
			if s := tp.score(lf, x, y); s > best {
				best, bestX, bestY = s, x, y
			}
		}
	}
	return bestX, bestY, best
}

// score returns the NCC of the template against the window at (x, y).
// Flat windows score zero.
func (tp *templateLuma) score(lf *lumaFrame, x, y int) float64 {
	var sumF, sumF2, sumFT float64
	if !tp.masked {
		sumF = lf.windowSum(lf.integral, x, y, tp.W, tp.H)
		sumF2 = lf.windowSum(lf.integralSq, x, y, tp.W, tp.H)
		varF := (sumF2 - sumF*sumF/tp.n) / tp.n
		if varF <= flatEpsilon {
			return 0
		}
	}
	for i, t := range tp.gray {
		f := lf.gray[(y+tp.ys[i])*lf.W+x+tp.xs[i]]
		sumFT += f * t
		if tp.masked {
			sumF += f
			sumF2 += f * f
		}
	}
	varF := (sumF2 - sumF*sumF/tp.n) / tp.n
	if varF <= flatEpsilon {
		return 0
	}
	denom := tp.n * math.Sqrt(varF) * tp.std
	return (sumFT - sumF*tp.mean) / denom
}

// findFlat handles single-colour templates, where NCC is undefined, by exact
// comparison of the visible pixels.
func (tp *templateLuma) findFlat(lf *lumaFrame) (int, int, bool) {
	ref := tp.gray[0]
	for y := 0; y <= lf.H-tp.H; y++ {
	next:
		for x := 0; x <= lf.W-tp.W; x++ {
			for i := range tp.gray {
				if math.Abs(lf.gray[(y+tp.ys[i])*lf.W+x+tp.xs[i]]-ref) > flatEpsilon {
					continue next
				}
			}
			return x, y, true
		}
	}
	return 0, 0, false
}

func newLumaFrame(frame *image.RGBA) *lumaFrame {
	b := frame.Bounds()
	W, H := b.Dx(), b.Dy()
	lf := &lumaFrame{
		gray:       make([]float64, W*H),
		integral:   make([]float64, W*H),
		integralSq: make([]float64, W*H),
		W:          W,
		H:          H,
	}
	for y := 0; y < H; y++ {
		var row, row2 float64
		p := frame.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < W; x++ {
			px := frame.Pix[p : p+4 : p+4]
			p += 4
			var v float64
			if px[3] != 0 {
				v = luma(float64(px[0]), float64(px[1]), float64(px[2]))
			}
			off := y*W + x
			lf.gray[off] = v
			row += v
			row2 += v * v
			if y == 0 {
				lf.integral[off] = row
				lf.integralSq[off] = row2
			} else {
				lf.integral[off] = lf.integral[off-W] + row
				lf.integralSq[off] = lf.integralSq[off-W] + row2
			}
		}
	}
	return lf
}

// windowSum returns the sum over the w x h window at (x, y) from a summed-area
// table.
func (lf *lumaFrame) windowSum(I []float64, x, y, w, h int) float64 {
	at := func(x, y int) float64 {
		if x < 0 || y < 0 {
			return 0
		}
		return I[y*lf.W+x]
	}
	x1, y1 := x+w-1, y+h-1
	return at(x1, y1) - at(x-1, y1) - at(x1, y-1) + at(x-1, y-1)
}

func luma(r, g, b float64) float64 { return 0.2126*r + 0.7152*g + 0.0722*b }
