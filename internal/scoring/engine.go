package scoring

import "fmt"

// Components are the normalized [0,100] scores indexed by Dimension.
type Components [NumDimensions]float64

func (c Components) Get(d Dimension) float64 { return c[d] }

// Band is the presentation status derived from a smoothed score.
type Band struct {
	Label string `json:"status"`
	Color string `json:"status_color"`
}

// Result is the full evaluation of one day's answers.
type Result struct {
	Answers    Answers
	Components Components
	RawTotal   float64
	Smoothed   float64
	GoodEnough bool
	Band       Band
}

// Engine computes FUIEDS scores. It holds no state beyond its configuration and
// is safe for concurrent use.
type Engine struct {
	cfg     Config
	weights [NumDimensions]float64
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scoring config: %w", err)
	}
	bands := make([]BandRule, len(cfg.Bands))
	copy(bands, cfg.Bands)
	cfg.Bands = bands
	return &Engine{cfg: cfg, weights: cfg.Weights.vector()}, nil
}

// MustNewEngine panics on an invalid configuration.
func MustNewEngine(cfg Config) *Engine {
	e, err := NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Engine) Config() Config { return e.cfg }

// HistoryWindow is how many prior raw totals Smooth considers.
func (e *Engine) HistoryWindow() int { return e.cfg.Smoothing.Window }

// Normalize rescales an answer in [0,4] to [0,100].
func Normalize(answer int) float64 {
	return (float64(answer) / float64(MaxAnswer)) * 100.0
}

func (e *Engine) Components(a Answers) Components {
	var c Components
	for i, v := range a {
		c[i] = Normalize(v)
	}
	return c
}

func (e *Engine) RawTotal(c Components) float64 {
	total := 0.0
	for i, v := range c {
		total += e.weights[i] * v
	}
	return total
}

// Smooth blends raw with the mean of prior raw totals. prior is newest first and
// only its first HistoryWindow entries are used; with no history raw is returned.
func (e *Engine) Smooth(raw float64, prior []float64) float64 {
	if len(prior) > e.cfg.Smoothing.Window {
		prior = prior[:e.cfg.Smoothing.Window]
	}
	if len(prior) == 0 {
		return raw
	}
	sum := 0.0
	for _, p := range prior {
		sum += p
	}
	mean := sum / float64(len(prior))
	return e.cfg.Smoothing.TodayWeight*raw + e.cfg.Smoothing.HistoryWeight*mean
}

func (e *Engine) IsGoodEnough(smoothed float64, c Components) bool {
	if smoothed < e.cfg.GoodEnough.MinSmoothed {
		return false
	}
	atFloor := 0
	for _, v := range c {
		if v >= e.cfg.GoodEnough.ComponentFloor {
			atFloor++
		}
	}
	return atFloor >= e.cfg.GoodEnough.MinComponents
}

func (e *Engine) Band(smoothed float64) Band {
	for _, b := range e.cfg.Bands {
		if smoothed >= b.Min {
			return Band{Label: b.Label, Color: b.Color}
		}
	}
	last := e.cfg.Bands[len(e.cfg.Bands)-1]
	return Band{Label: last.Label, Color: last.Color}
}

// Evaluate runs the whole pipeline for validated answers and the prior raw totals
// (newest first) that existed when the submission arrived.
func (e *Engine) Evaluate(a Answers, prior []float64) Result {
	c := e.Components(a)
	raw := e.RawTotal(c)
	smoothed := e.Smooth(raw, prior)
	return Result{
		Answers:    a,
		Components: c,
		RawTotal:   raw,
		Smoothed:   smoothed,
		GoodEnough: e.IsGoodEnough(smoothed, c),
		Band:       e.Band(smoothed),
	}
}
