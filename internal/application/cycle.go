package application

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantegy/tradepulse/internal/cache"
	"github.com/quantegy/tradepulse/internal/config"
	"github.com/quantegy/tradepulse/internal/domain"
	"github.com/quantegy/tradepulse/internal/domain/flow"
	"github.com/quantegy/tradepulse/internal/domain/indicators"
	"github.com/quantegy/tradepulse/internal/gate"
	"github.com/quantegy/tradepulse/internal/metrics"
	"github.com/quantegy/tradepulse/internal/persistence"
	"github.com/quantegy/tradepulse/internal/provider"
	"github.com/quantegy/tradepulse/internal/regime"
	"github.com/quantegy/tradepulse/internal/regime/router"
	"github.com/quantegy/tradepulse/internal/risk"
	"github.com/quantegy/tradepulse/internal/scoring"
	"github.com/quantegy/tradepulse/internal/strategy"
)

// CycleResult is the full output of one decision cycle, kept for the HTTP
// read surface and audit.
type CycleResult struct {
	Timestamp time.Time              `json:"timestamp"`
	Symbol    string                 `json:"symbol"`
	Regime    *regime.Result         `json:"regime"`
	Mode      router.Result          `json:"mode"`
	Flow      flow.Result            `json:"flow"`
	Score     scoring.TotalScore     `json:"score"`
	Modifier  scoring.ModifierResult `json:"modifier"`
	Gate      gate.Evaluation        `json:"gate"`
	Trigger   *gate.TriggerSignal    `json:"trigger,omitempty"`
	Decision  *strategy.Decision     `json:"decision"`
	Risk      *risk.Params           `json:"risk,omitempty"`
	FailOpens []string               `json:"fail_opens,omitempty"`
}

// Engine runs the decision pipeline. Stages run strictly in order: fetch,
// flow, classify, persist, route, score, modifier, gate, strategy, risk.
// Component errors never abort the cycle; each converts to a conservative
// default at the call site and is counted.
type Engine struct {
	source     provider.SnapshotSource
	classifier *regime.Classifier
	router     *router.Router
	gate       *gate.Gate
	registry   *strategy.Registry
	risk       *risk.Engine
	metrics    *metrics.Metrics

	repo         persistence.ClassificationRepo
	decisionRepo persistence.DecisionRepo
	cache        *cache.Classifications

	config *config.Config

	mu          sync.RWMutex
	gateState   gate.State
	lastVeto    time.Time
	macroEvents []scoring.MacroEvent
	newsScore   *int
	lossStreak  int
	last        *CycleResult
}

// Option configures optional engine wiring.
type Option func(*Engine)

// WithPersistence attaches the postgres repositories.
func WithPersistence(repo persistence.ClassificationRepo, decisions persistence.DecisionRepo) Option {
	return func(e *Engine) {
		e.repo = repo
		e.decisionRepo = decisions
	}
}

// WithCache attaches the latest-classification cache.
func WithCache(c *cache.Classifications) Option {
	return func(e *Engine) { e.cache = c }
}

// NewEngine wires the pipeline from one immutable config snapshot. The
// engine never re-reads cfg after construction; restart to retune.
func NewEngine(cfg *config.Config, source provider.SnapshotSource, m *metrics.Metrics, opts ...Option) *Engine {
	e := &Engine{
		source:     source,
		classifier: regime.NewClassifier(cfg.Classifier),
		router:     router.New(cfg.Router),
		gate:       gate.New(cfg.Gate),
		registry: strategy.NewRegistry(
			strategy.NewStaticRange(cfg.StaticRange),
			strategy.NewVolatileRange(cfg.VolatileRange),
			strategy.NewShockBreakout(cfg.ShockBreakout),
		),
		risk:    risk.NewEngine(cfg.Risk),
		metrics: m,
		config:  cfg,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetMacroEvents replaces the active macro event set.
func (e *Engine) SetMacroEvents(events []scoring.MacroEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.macroEvents = events
}

// SetNewsScore sets the supplementary news score for coming cycles.
func (e *Engine) SetNewsScore(score *int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.newsScore = score
}

// RecordTradeResult feeds closed-trade outcomes into the loss-streak input.
func (e *Engine) RecordTradeResult(won bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if won {
		e.lossStreak = 0
	} else {
		e.lossStreak++
	}
}

// Risk exposes the risk engine for the preview endpoint.
func (e *Engine) Risk() *risk.Engine {
	return e.risk
}

// Last returns the most recent cycle result, nil before the first cycle.
func (e *Engine) Last() *CycleResult {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last
}

// RunOnce executes one full decision cycle.
func (e *Engine) RunOnce(ctx context.Context) (*CycleResult, error) {
	started := time.Now()
	defer func() {
		e.metrics.CycleDuration.Observe(time.Since(started).Seconds())
	}()

	data, err := e.source.Fetch(ctx, e.config.Symbol, e.config.Timeframe)
	if err != nil {
		e.metrics.CyclesTotal.WithLabelValues("fetch_error").Inc()
		return nil, err
	}

	result := &CycleResult{Timestamp: time.Now(), Symbol: e.config.Symbol}
	failOpen := func(component string, err error) {
		log.Warn().Err(err).Str("component", component).Msg("fail-open to conservative default")
		e.metrics.FailOpen(component)
		result.FailOpens = append(result.FailOpens, component)
	}

	e.mu.RLock()
	macroEvents := e.macroEvents
	newsScore := e.newsScore
	lossStreak := e.lossStreak
	gateState := e.gateState
	lastVeto := e.lastVeto
	e.mu.RUnlock()

	snap := data.Snapshot

	// Flow precedes classification: shock sub-typing reads the flow bias.
	result.Flow = flow.Infer(data.Flow)

	regimeResult, err := e.classifier.Classify(classifierInputs(e.config, snap, data.Candles, result.Flow))
	if err != nil {
		failOpen("classifier", err)
		regimeResult = &regime.Result{
			Symbol: e.config.Symbol, Timeframe: e.config.Timeframe,
			Timestamp: snap.Timestamp, Regime: regime.Range, Confidence: 50,
		}
	}
	result.Regime = regimeResult
	e.metrics.ObserveRegime(e.config.Symbol, string(regimeResult.Regime))

	if regimeResult.IsVeto() {
		lastVeto = time.Now()
		e.mu.Lock()
		e.lastVeto = lastVeto
		e.mu.Unlock()
	}

	result.Mode = e.router.Route(snap)

	e.persist(ctx, regimeResult, result, failOpen)

	result.Score = e.score(snap, data, result.Flow, macroEvents, newsScore)
	result.Modifier = scoring.ComputeModifier(result.Score, e.activeDrift(result), e.config.Modifier)

	result.Gate = e.gate.Evaluate(&gateState, gateInputs(snap, data.Candles), time.Now())
	e.mu.Lock()
	e.gateState = gateState
	e.mu.Unlock()

	result.Trigger = entryTrigger(data.Candles, e.config.Triggers, result.Gate.Direction)

	result.Decision = e.decide(snap, data, newsScore, lastVeto, result, failOpen)

	if result.Decision.Action == strategy.ActionEnter || result.Decision.Action == strategy.ActionAdd {
		params, err := e.risk.Compute(riskInputs(regimeResult, result.Mode, snap, lossStreak, data.Position))
		if err != nil {
			failOpen("risk", err)
			params = e.risk.ConservativeDefaults()
		}
		result.Risk = params
	}

	e.recordDecision(ctx, result, failOpen)
	e.metrics.DecisionsTotal.WithLabelValues(string(result.Decision.Action)).Inc()
	e.metrics.CyclesTotal.WithLabelValues("ok").Inc()

	log.Info().
		Str("symbol", result.Symbol).
		Str("regime", string(regimeResult.Regime)).
		Str("mode", string(result.Mode.Mode)).
		Int("score", result.Score.Total).
		Str("action", string(result.Decision.Action)).
		Msg("cycle complete")

	e.mu.Lock()
	e.last = result
	e.mu.Unlock()
	return result, nil
}

// Run loops RunOnce on the configured interval until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.config.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := e.RunOnce(ctx); err != nil {
				log.Error().Err(err).Msg("cycle failed")
			}
		}
	}
}

// score runs the five axes and fuses them. Entry gating from the modifier
// happens after fusion; the axes themselves never see each other.
func (e *Engine) score(snap *domain.FeatureSnapshot, data *provider.MarketData,
	flowResult flow.Result, macroEvents []scoring.MacroEvent, newsScore *int) scoring.TotalScore {

	technical := scoring.TechnicalAxis(snap, data.Candles, e.config.Technical)
	axes := []scoring.AxisResult{
		technical,
		scoring.MacroAxis(macroEvents, time.Now()),
		scoring.PositionAxis(data.Position, snap, technical.Score, e.config.Position),
		scoring.LiquidityAxis(flowResult),
		scoring.NewsAxis(newsScore),
	}
	return scoring.Fuse(axes)
}

func (e *Engine) decide(snap *domain.FeatureSnapshot, data *provider.MarketData,
	newsScore *int, lastVeto time.Time, result *CycleResult, failOpen func(string, error)) *strategy.Decision {

	strat := e.registry.ForMode(result.Mode.Mode)
	decision, err := strat.Decide(strategy.Context{
		Snapshot:  snap,
		Candles:   data.Candles,
		Position:  data.Position,
		NewsScore: newsScore,
		Mode:      result.Mode,
		MaxStage:  e.config.Position.MaxStage,
	})
	if err != nil {
		failOpen("strategy", err)
		return &strategy.Decision{Action: strategy.ActionHold, Reason: "strategy error, holding"}
	}

	// Entry-shaped decisions pass the remaining guards; exits never do.
	if decision.Action == strategy.ActionEnter || decision.Action == strategy.ActionAdd {
		if result.Regime.IsVeto() {
			return &strategy.Decision{Action: strategy.ActionHold, Reason: "shock veto active"}
		}
		if !lastVeto.IsZero() && time.Since(lastVeto) < e.config.VetoCooldown {
			return &strategy.Decision{Action: strategy.ActionHold, Reason: "shock veto cooldown active"}
		}
		if !snap.SpreadOK || !snap.LiquidityOK {
			return &strategy.Decision{Action: strategy.ActionHold, Reason: "microstructure degraded"}
		}
		if result.Modifier.EntryBlocked {
			return &strategy.Decision{Action: strategy.ActionHold, Reason: result.Modifier.BlockReason}
		}
		if blocked, reason := gateBlocks(result.Gate, decision); blocked {
			return &strategy.Decision{Action: strategy.ActionHold, Reason: reason}
		}
		if result.Trigger != nil && decision.Side != nil && result.Trigger.Side == *decision.Side {
			if decision.Meta == nil {
				decision.Meta = map[string]string{}
			}
			decision.Meta["trigger"] = result.Trigger.Kind
		}
	}
	return decision
}

// entryTrigger scans for a trend entry trigger in the gate's allowed
// direction, preferring the breakout over the pullback when both fire.
func entryTrigger(candles []domain.Candle, cfg gate.TriggerConfig, allowed gate.Direction) *gate.TriggerSignal {
	if sig := gate.DonchianBreakout(candles, cfg, allowed); sig != nil {
		return sig
	}
	return gate.EMAPullback(candles, cfg, allowed)
}

func gateBlocks(eval gate.Evaluation, decision *strategy.Decision) (bool, string) {
	if decision.Side == nil {
		return false, ""
	}
	switch eval.Direction {
	case gate.NoTrade:
		return true, "direction gate: " + eval.Reason
	case gate.LongOnly:
		if *decision.Side == domain.SideShort {
			return true, "direction gate allows LONG only"
		}
	case gate.ShortOnly:
		if *decision.Side == domain.SideLong {
			return true, "direction gate allows SHORT only"
		}
	}
	return false, ""
}

func (e *Engine) activeDrift(result *CycleResult) *domain.DriftDirection {
	if result.Mode.Mode != router.ModeB {
		return nil
	}
	return result.Mode.DriftSubmode
}

func (e *Engine) persist(ctx context.Context, regimeResult *regime.Result, result *CycleResult, failOpen func(string, error)) {
	if e.repo == nil && e.cache == nil {
		return
	}
	row := toRow(regimeResult, result)
	if e.repo != nil {
		if err := e.repo.Upsert(ctx, row); err != nil {
			failOpen("persistence", err)
		}
	}
	if e.cache != nil {
		if err := e.cache.SetLatest(ctx, row); err != nil {
			failOpen("cache", err)
		}
	}
}

func (e *Engine) recordDecision(ctx context.Context, result *CycleResult, failOpen func(string, error)) {
	if e.decisionRepo == nil || result.Decision.Action == strategy.ActionHold {
		return
	}
	row := persistence.DecisionRow{
		Timestamp: result.Timestamp,
		Symbol:    result.Symbol,
		Action:    string(result.Decision.Action),
		SignalKey: result.Decision.SignalKey,
		Reason:    result.Decision.Reason,
	}
	if result.Decision.Side != nil {
		s := string(*result.Decision.Side)
		row.Side = &s
	}
	if result.Risk != nil {
		row.SLPct = &result.Risk.SLPct
		row.TPPct = &result.Risk.TPPct
	}
	if _, err := e.decisionRepo.Insert(ctx, row); err != nil {
		failOpen("decision_audit", err)
	}
}

func classifierInputs(cfg *config.Config, snap *domain.FeatureSnapshot, candles []domain.Candle, flowResult flow.Result) regime.Inputs {
	in := regime.Inputs{
		Symbol:        cfg.Symbol,
		Timeframe:     cfg.Timeframe,
		Timestamp:     snap.Timestamp,
		Price:         snap.Price,
		Candles1m:     candles,
		Return5mPct:   snap.Return5mPct,
		VolumeRatio5m: snap.VolumeRatio5m,
		BBWRatio:      snap.BBWRatio,
		POC:           snap.POC,
		VAH:           snap.VAH,
		VAL:           snap.VAL,
		Flow:          flowResult,
	}
	in.ADX = indicators.ComputeADX(candles, 14)
	return in
}

// gateInputs resamples the 1m window into 15m and 1h bars for the EMA
// agreement checks.
func gateInputs(snap *domain.FeatureSnapshot, candles []domain.Candle) gate.Inputs {
	in := gate.Inputs{
		ADX:           snap.ADX,
		DataTimestamp: snap.Timestamp,
	}
	if closes := resampleCloses(candles, 15); len(closes) > 0 {
		if fast, ok := indicators.EMA(closes, 50); ok {
			in.EMA50M15 = &fast
		}
		if slow, ok := indicators.EMA(closes, 200); ok {
			in.EMA200M15 = &slow
		}
	}
	if closes := resampleCloses(candles, 60); len(closes) > 0 {
		if fast, ok := indicators.EMA(closes, 50); ok {
			in.EMA50H1 = &fast
		}
		if slow, ok := indicators.EMA(closes, 200); ok {
			in.EMA200H1 = &slow
		}
	}
	return in
}

// resampleCloses aggregates every n 1m candles into one close, dropping the
// incomplete trailing group.
func resampleCloses(candles []domain.Candle, n int) []float64 {
	if n <= 0 || len(candles) < n {
		return nil
	}
	out := make([]float64, 0, len(candles)/n)
	for i := n - 1; i < len(candles); i += n {
		out = append(out, candles[i].Close)
	}
	return out
}

func riskInputs(regimeResult *regime.Result, mode router.Result, snap *domain.FeatureSnapshot, lossStreak int, position *domain.PositionContext) risk.Inputs {
	in := risk.Inputs{
		Regime:     riskClass(regimeResult, mode),
		ATRPct:     snap.ATRPct,
		Impulse:    snap.Impulse,
		LossStreak: lossStreak,
	}
	if regimeResult.ShockType != nil {
		in.ShockType = string(*regimeResult.ShockType)
	}
	if position != nil {
		in.Stage = position.Stage
	}
	return in
}

// riskClass maps the monitoring regime and routed mode onto the risk
// profile classes.
func riskClass(regimeResult *regime.Result, mode router.Result) risk.RegimeClass {
	switch regimeResult.Regime {
	case regime.Breakout, regime.Shock:
		return risk.BreakoutCls
	default:
		if mode.DriftSubmode != nil {
			if *mode.DriftSubmode == domain.DriftUp {
				return risk.DriftUp
			}
			return risk.DriftDown
		}
		return risk.StaticRange
	}
}

// toRow flattens a cycle's classification into its persisted form.
func toRow(regimeResult *regime.Result, result *CycleResult) persistence.ClassificationRow {
	row := persistence.ClassificationRow{
		Timestamp:  regimeResult.Timestamp,
		Symbol:     regimeResult.Symbol,
		Timeframe:  regimeResult.Timeframe,
		Regime:     string(regimeResult.Regime),
		Mode:       string(result.Mode.Mode),
		Confidence: regimeResult.Confidence,
		FlowBias:   regimeResult.FlowBias,
		Reasons:    result.Mode.Reasons,
		Readings:   map[string]interface{}{},
	}
	if regimeResult.ShockType != nil {
		s := string(*regimeResult.ShockType)
		row.ShockType = &s
	}
	if regimeResult.ADX14 != nil {
		row.Readings["adx_14"] = *regimeResult.ADX14
	}
	if regimeResult.BBWRatio != nil {
		row.Readings["bbw_ratio"] = *regimeResult.BBWRatio
	}
	if regimeResult.POC != nil {
		row.Readings["poc"] = *regimeResult.POC
	}
	row.Readings["price_vs_va"] = string(regimeResult.PriceVsVA)
	return row
}
