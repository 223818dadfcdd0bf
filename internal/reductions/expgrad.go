package reductions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ahrav/go-fairness/internal/classifier"
	"github.com/ahrav/go-fairness/internal/domain"
)

const (
	// Learning-rate schedule: when the best duality gap has not shrunk below
	// shrinkRatio of its value at the previous check, η is multiplied by
	// shrinkRatio. Checks happen at rounds firstCheck, firstCheck·checkGrowth, ...
	shrinkRatio = 0.8
	firstCheck  = 5
	checkGrowth = 1.6

	// toleranceScale derives ν from the first oracle's absolute-error spread.
	toleranceScale = 0.5
	minTolerance   = 1e-6

	// arenaPrecision is the margin by which a fresh best response must beat
	// the stored candidates to be kept.
	arenaPrecision = 1e-8

	// feasibilityTol absorbs rounding in the mixture's violation.
	feasibilityTol = 1e-8
)

// gapMultipliers scale λ when searching for a lower bound on the dual value.
var gapMultipliers = []float64{1, 2, 5, 10}

// Stop reasons reported on unverified results.
const (
	ReasonIterationCap = "iteration cap reached"
	ReasonDeadline     = "deadline exceeded"
	ReasonCancelled    = "context cancelled"
)

// ErrRunInProgress is returned when Fit is called while another run of the
// same reduction is iterating.
var ErrRunInProgress = errors.New("reduction run already in progress")

// RoundStats records one round of the game.
//
// Error, MaxViolation and Gap describe the mixture kept that round;
// LinearProgram reports whether it came from the linear program rather than
// the running average. Lambda is the dual player's strategy for the round.
type RoundStats struct {
	Round         int         `json:"round"`
	Error         float64     `json:"error"`
	MaxViolation  float64     `json:"max_violation"`
	Gap           float64     `json:"gap"`
	Eta           float64     `json:"eta"`
	LinearProgram bool        `json:"linear_program"`
	Lambda        DualWeights `json:"lambda"`
}

// Result is the outcome of a run. Predictor is nil only when the oracle
// failed before producing any candidate.
type Result struct {
	Predictor  *RandomizedPredictor
	Summary    domain.MitigationSummary
	History    []RoundStats
	Directions []Direction
	Warning    *domain.NonConvergenceWarning
}

// Option configures an ExponentiatedGradient.
type Option func(*ExponentiatedGradient)

// WithLogger sets the progress logger.
func WithLogger(l *slog.Logger) Option { return func(e *ExponentiatedGradient) { e.logger = l } }

// WithClock replaces the wall clock used for MaxDuration.
func WithClock(now func() time.Time) Option { return func(e *ExponentiatedGradient) { e.now = now } }

// WithPredictionMode sets the mode of the returned predictor.
func WithPredictionMode(m domain.PredictionMode) Option {
	return func(e *ExponentiatedGradient) { e.mode = m }
}

// WithRoundHook registers fn to be called synchronously after every round.
func WithRoundHook(fn func(RoundStats)) Option {
	return func(e *ExponentiatedGradient) { e.onRound = fn }
}

// ExponentiatedGradient runs the reduction. One value may be reused for
// sequential runs; concurrent Fit calls fail with ErrRunInProgress.
type ExponentiatedGradient struct {
	cfg        domain.ReductionConfig
	constraint Constraint
	factory    classifier.Factory
	mode       domain.PredictionMode
	logger     *slog.Logger
	now        func() time.Time
	onRound    func(RoundStats)

	mu    sync.Mutex
	state domain.ReductionState
}

// NewExponentiatedGradient validates cfg and returns a reduction in the
// initialized state.
func NewExponentiatedGradient(
	constraint Constraint,
	factory classifier.Factory,
	cfg domain.ReductionConfig,
	opts ...Option,
) (*ExponentiatedGradient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if constraint == nil || factory == nil {
		return nil, fmt.Errorf("%w: constraint and oracle factory are required", domain.ErrInvalidRequest)
	}
	e := &ExponentiatedGradient{
		cfg:        cfg,
		constraint: constraint,
		factory:    factory,
		mode:       domain.PredictDeterministic,
		logger:     slog.Default().With("component", "expgrad"),
		now:        time.Now,
		state:      domain.ReductionInitialized,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// State returns the lifecycle state of the latest run.
func (e *ExponentiatedGradient) State() domain.ReductionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *ExponentiatedGradient) setState(s domain.ReductionState) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// run holds the state owned by one Fit call. The candidate arena is
// append-only: a stored oracle keeps its index for the rest of the run.
type run struct {
	n         int
	bound     float64
	eps       float64
	groupOf   []domain.GroupKey
	labels    []int
	active    []bool
	activeIdx []int
	theta     []float64
	lambdaSum []float64

	candidates []classifier.Oracle
	errs       []float64   // err(h)
	gammas     [][]float64 // signed gamma(h)
	picks      []int       // arena index of each round's best response
	fits       int         // oracle fits so far; seeds the next one
	stats      []RoundStats
}

func (r *run) lambda() DualWeights {
	l := make(DualWeights, len(r.theta))
	denom := 1.0
	for j, th := range r.theta {
		if r.active[j] {
			denom += math.Exp(th)
		}
	}
	for j, th := range r.theta {
		if r.active[j] {
			l[j] = r.bound * math.Exp(th) / denom
		}
	}
	return l
}

// lagrangian is err + Σ_j λ_j (γ_j − ε).
func (r *run) lagrangian(err float64, gamma []float64, lambda []float64) float64 {
	l := err
	for j, g := range gamma {
		if r.active[j] {
			l += lambda[j] * (g - r.eps)
		}
	}
	return l
}

func (r *run) maxViolation(gamma []float64) float64 {
	m := 0.0
	for j, g := range gamma {
		if r.active[j] {
			m = max(m, g)
		}
	}
	return m
}

// minLagrangian returns the stored candidate with the lowest Lagrangian under
// lambda, or -1 when the arena is empty.
func (r *run) minLagrangian(lambda []float64) (int, float64) {
	idx, val := -1, math.Inf(1)
	for c := range r.candidates {
		if l := r.lagrangian(r.errs[c], r.gammas[c], lambda); l < val {
			idx, val = c, l
		}
	}
	return idx, val
}

// mix returns the error and signed gamma of the mixture with the given
// weights over the arena prefix they cover. Both are linear in predictions,
// so they are the weighted sums of the candidates' values.
func (r *run) mix(weights []float64) (float64, []float64) {
	var err float64
	gamma := make([]float64, len(r.theta))
	for c, w := range weights {
		if w == 0 {
			continue
		}
		err += w * r.errs[c]
		floats.AddScaled(gamma, w, r.gammas[c])
	}
	return err, gamma
}

// evaluation is a mixture scored against a dual vector.
type evaluation struct {
	weights   []float64
	err       float64
	gamma     []float64
	violation float64
	objective float64 // L_high: err + B·max(0, violation − ε)
	gap       float64
	lp        bool
}

// Fit plays the game on ds until convergence, the iteration cap, or the
// deadline. Stopping at the cap or deadline is not an error: the result is
// returned with Verified false and a NonConvergenceWarning. An oracle
// failure moves the run to the failed state and returns an OracleFitError
// together with the best mixture found so far, if any.
//
// Each round plays the dual's current λ against a fresh best response, then
// scores two mixtures: the average of all best responses against the average
// λ, and the linear-programming optimum over the arena against its own
// duals. The one with the smaller duality gap is kept. The run is verified
// once the kept mixture violates no direction by more than ε and its gap is
// below the tolerance ν.
func (e *ExponentiatedGradient) Fit(ctx context.Context, ds *domain.Dataset) (*Result, error) {
	e.mu.Lock()
	if e.state == domain.ReductionIterating {
		e.mu.Unlock()
		return nil, ErrRunInProgress
	}
	e.state = domain.ReductionInitialized
	e.mu.Unlock()

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if err := e.constraint.Load(ds.Labels, ds.Sensitive); err != nil {
		return nil, err
	}

	dirs := e.constraint.Directions()
	r := &run{
		n:         ds.Len(),
		bound:     e.cfg.EffectiveBound(),
		eps:       e.cfg.Epsilon,
		groupOf:   ds.Sensitive.Keys(),
		labels:    ds.Labels,
		active:    make([]bool, len(dirs)),
		theta:     make([]float64, len(dirs)),
		lambdaSum: make([]float64, len(dirs)),
	}
	for j := range dirs {
		r.active[j] = e.constraint.Active(j)
		if r.active[j] {
			r.activeIdx = append(r.activeIdx, j)
		}
	}

	e.setState(domain.ReductionIterating)
	start := e.now()
	eta := e.cfg.Eta0 / r.bound
	nu := e.cfg.Tolerance
	bestGap, lastGap := math.Inf(1), math.Inf(1)
	checkAt := float64(firstCheck)

	best := struct {
		round int
		evaluation
	}{round: -1, evaluation: evaluation{objective: math.Inf(1)}}

	progress := rate.Sometimes{First: 1, Interval: 2 * time.Second}
	summary := domain.MitigationSummary{Constraint: e.constraint.Kind()}
	var stopReason string
	verified := false

	fail := func(t int, cause error) (*Result, error) {
		e.logger.Error("oracle fit failed", "round", t, "error", cause)
		e.setState(domain.ReductionFailed)
		summary.State = domain.ReductionFailed
		summary.Error = best.err
		summary.MaxViolation = best.violation
		summary.Gap = best.gap
		summary.Rounds = t
		summary.BestRound = best.round
		res := &Result{Summary: summary, History: r.stats, Directions: dirs}
		if best.round >= 0 {
			pred, err := e.mixture(r, best.weights)
			if err != nil {
				return nil, err
			}
			res.Predictor = pred
			res.Summary.Candidates = len(pred.Candidates())
		}
		return res, &domain.OracleFitError{Round: t, Cause: cause}
	}

	for t := 0; t < e.cfg.MaxIter; t++ {
		if t > 0 {
			if reason := e.deadline(ctx, start); reason != "" {
				stopReason = reason
				break
			}
		}

		lambda := r.lambda()
		floats.Add(r.lambdaSum, lambda)

		c, err := e.bestH(ds, r, lambda)
		if err != nil {
			return fail(t, err)
		}
		r.picks = append(r.picks, c)

		if t == 0 && nu == 0 {
			nu = e.tolerance(ds, r, c)
		}

		rounds := float64(t + 1)
		qEG := make([]float64, len(r.candidates))
		for _, p := range r.picks {
			qEG[p] += 1 / rounds
		}
		lambdaEG := make(DualWeights, len(r.lambdaSum))
		floats.ScaleTo(lambdaEG, 1/rounds, r.lambdaSum)

		eg, err := e.evalGap(ds, r, qEG, lambdaEG, nu)
		if err != nil {
			return fail(t, err)
		}
		kept := eg

		if t > 0 {
			if weights, duals, err := r.solveLP(); err != nil {
				e.logger.Debug("linear program skipped", "round", t, "error", err)
			} else {
				lpEval, err := e.evalGap(ds, r, weights, duals, nu)
				if err != nil {
					return fail(t, err)
				}
				lpEval.lp = true
				if lpEval.gap < eg.gap {
					kept = lpEval
				}
			}
		}

		if kept.objective <= best.objective {
			best.round, best.evaluation = t, kept
		}

		r.stats = append(r.stats, RoundStats{
			Round:         t,
			Error:         kept.err,
			MaxViolation:  kept.violation,
			Gap:           kept.gap,
			Eta:           eta,
			LinearProgram: kept.lp,
			Lambda:        lambda,
		})
		if e.onRound != nil {
			e.onRound(r.stats[t])
		}
		progress.Do(func() {
			e.logger.Info("reduction round", "round", t, "error", kept.err, "max_violation", kept.violation,
				"gap", kept.gap, "eta", eta, "linear_program", kept.lp, "candidates", len(r.candidates))
		})

		if kept.violation <= r.eps+feasibilityTol && kept.gap < nu && t+1 >= e.cfg.MinIter {
			best.round, best.evaluation = t, kept
			verified = true
			break
		}

		bestGap = min(bestGap, eg.gap)
		if rounds >= checkAt {
			if bestGap > shrinkRatio*lastGap {
				eta *= shrinkRatio
			}
			lastGap = bestGap
			checkAt *= checkGrowth
		}

		for j, g := range eg.gamma {
			if r.active[j] {
				r.theta[j] += eta * (g - r.eps)
			}
		}
	}

	if !verified && stopReason == "" {
		stopReason = ReasonIterationCap
	}

	pred, err := e.mixture(r, best.weights)
	if err != nil {
		e.setState(domain.ReductionFailed)
		return nil, err
	}

	e.setState(domain.ReductionConverged)
	summary.State = domain.ReductionConverged
	summary.Verified = verified
	summary.Rounds = len(r.stats)
	summary.BestRound = best.round
	summary.Candidates = len(pred.Candidates())
	summary.MaxViolation = best.violation
	summary.Error = best.err
	summary.Gap = best.gap

	res := &Result{Predictor: pred, Summary: summary, History: r.stats, Directions: dirs}
	if !verified {
		res.Warning = &domain.NonConvergenceWarning{
			Rounds:       summary.Rounds,
			MaxViolation: best.violation,
			Gap:          best.gap,
			Epsilon:      r.eps,
			Reason:       stopReason,
		}
		res.Summary.Warning = res.Warning.Error()
		e.logger.Warn("reduction not verified", "reason", stopReason, "rounds", summary.Rounds,
			"max_violation", best.violation, "gap", best.gap)
	} else {
		e.logger.Info("reduction converged", "rounds", summary.Rounds, "best_round", best.round,
			"max_violation", best.violation, "error", best.err, "candidates", summary.Candidates)
	}
	return res, nil
}

// tolerance derives ν from the absolute-error spread of candidate c.
func (e *ExponentiatedGradient) tolerance(ds *domain.Dataset, r *run, c int) float64 {
	abs := make([]float64, r.n)
	for i, y := range r.candidates[c].Predict(ds.Features) {
		abs[i] = math.Abs(float64(y - r.labels[i]))
	}
	return max(toleranceScale*stat.StdDev(abs, nil)/math.Sqrt(float64(r.n)), minTolerance)
}

// evalGap scores the mixture weights against lambda. L is the mixture's
// Lagrangian, L_high bounds it from above by letting the dual put its whole
// budget on the worst violation, and L_low bounds the dual value from below
// using best responses to scaled copies of lambda. The gap is
// max(L − L_low, L_high − L); scaling stops as soon as it exceeds nu.
func (e *ExponentiatedGradient) evalGap(
	ds *domain.Dataset,
	r *run,
	weights []float64,
	lambda DualWeights,
	nu float64,
) (evaluation, error) {
	qErr, qGamma := r.mix(weights)
	violation := r.maxViolation(qGamma)
	ev := evaluation{
		weights:   weights,
		err:       qErr,
		gamma:     qGamma,
		violation: violation,
		objective: qErr + r.bound*max(0, violation-r.eps),
	}

	l := r.lagrangian(qErr, qGamma, lambda)
	lLow := l
	scaled := make(DualWeights, len(lambda))
	for _, mul := range gapMultipliers {
		floats.ScaleTo(scaled, mul, lambda)
		c, err := e.bestH(ds, r, scaled)
		if err != nil {
			return evaluation{}, err
		}
		lLow = min(lLow, r.lagrangian(r.errs[c], r.gammas[c], lambda))
		ev.gap = max(l-lLow, ev.objective-l)
		if ev.gap > nu+arenaPrecision {
			break
		}
	}
	return ev, nil
}

// deadline reports why the run must stop before the next round, if at all.
func (e *ExponentiatedGradient) deadline(ctx context.Context, start time.Time) string {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ReasonDeadline
	case ctx.Err() != nil:
		return ReasonCancelled
	case e.cfg.MaxDuration > 0 && e.now().Sub(start) >= e.cfg.MaxDuration:
		return ReasonDeadline
	}
	return ""
}

// bestH returns the arena index of the best response to lambda. A freshly
// fitted oracle joins the arena only when its Lagrangian beats every stored
// candidate by more than arenaPrecision; otherwise the stored minimiser is
// returned.
func (e *ExponentiatedGradient) bestH(ds *domain.Dataset, r *run, lambda DualWeights) (int, error) {
	h, err := e.bestResponse(ds, r, lambda)
	if err != nil {
		return -1, err
	}

	pred := make([]float64, r.n)
	var wrong float64
	for i, y := range h.Predict(ds.Features) {
		pred[i] = float64(y)
		if y != r.labels[i] {
			wrong++
		}
	}
	hErr := wrong / float64(r.n)
	gamma := e.constraint.Gamma(pred)

	if idx, val := r.minLagrangian(lambda); idx >= 0 && r.lagrangian(hErr, gamma, lambda) >= val-arenaPrecision {
		return idx, nil
	}
	r.candidates = append(r.candidates, h)
	r.errs = append(r.errs, hErr)
	r.gammas = append(r.gammas, gamma)
	return len(r.candidates) - 1, nil
}

// bestResponse fits a fresh oracle to the cost-sensitive problem induced by
// lambda: label 1 where a positive prediction lowers the Lagrangian, weighted
// by how much it lowers it.
func (e *ExponentiatedGradient) bestResponse(ds *domain.Dataset, r *run, lambda DualWeights) (classifier.Oracle, error) {
	redY := make([]int, r.n)
	redW := make([]float64, r.n)
	for i, y := range r.labels {
		s := float64(2*y-1) - e.constraint.Reweight(i, r.groupOf[i], lambda)
		if s > 0 {
			redY[i] = 1
		}
		redW[i] = math.Abs(s)
	}
	if floats.Sum(redW) == 0 {
		return nil, fmt.Errorf("%w: no example carries positive cost", classifier.ErrDegenerateWeights)
	}

	h := e.factory(e.cfg.Seed + int64(r.fits))
	r.fits++
	if err := h.Fit(ds.Features, redY, redW); err != nil {
		return nil, err
	}
	return h, nil
}

// mixture builds the predictor over the candidates with positive weight.
func (e *ExponentiatedGradient) mixture(r *run, weights []float64) (*RandomizedPredictor, error) {
	var cands []classifier.Predictor
	var kept []float64
	for c, w := range weights {
		if w > 0 {
			cands = append(cands, r.candidates[c])
			kept = append(kept, w)
		}
	}
	return NewRandomizedPredictor(cands, kept, e.mode, e.cfg.Seed)
}
