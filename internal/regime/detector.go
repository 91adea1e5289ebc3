package regime

import (
	"fmt"
	"math"
	"time"

	"github.com/quantegy/tradepulse/internal/domain"
	"github.com/quantegy/tradepulse/internal/domain/flow"
	"github.com/quantegy/tradepulse/internal/domain/indicators"
)

// ClassifierConfig holds the decision-tree thresholds. Defaults mirror the
// production tuning; all values are overridable from YAML.
type ClassifierConfig struct {
	// Shock triggers
	ShockReturnPct     float64 `yaml:"shock_return_pct"`      // |5m return| threshold, percent
	ShockVolumeRatio   float64 `yaml:"shock_volume_ratio"`    // 5m volume vs MA threshold
	VetoReturnPct      float64 `yaml:"veto_return_pct"`       // |5m return| that always vetoes
	DirectionReturnPct float64 `yaml:"direction_return_pct"`  // min |return| to set direction from price
	DirectionFlowBias  int     `yaml:"direction_flow_bias"`   // min |flow bias| to set direction from flow
	ShockConfFloor     int     `yaml:"shock_conf_floor"`      // minimum shock confidence

	// Breakout conditions
	BreakoutBlocks      int     `yaml:"breakout_blocks"`       // consecutive 5m blocks beyond VA
	BreakoutBlockSize   int     `yaml:"breakout_block_size"`   // 1m candles per block
	BreakoutVolumeRatio float64 `yaml:"breakout_volume_ratio"` // 5m volume vs MA threshold
	BreakoutADX         float64 `yaml:"breakout_adx"`          // ADX threshold
	BreakoutMinMet      int     `yaml:"breakout_min_met"`      // conditions required (of 3)
	BreakoutADXBonus    float64 `yaml:"breakout_adx_bonus"`    // ADX level granting +10 confidence

	// Range confidence bands
	RangeADXQuiet  float64 `yaml:"range_adx_quiet"`  // ADX below this counts as quiet
	RangeADXLoose  float64 `yaml:"range_adx_loose"`  // ADX below this still leans range
	RangeBBWQuiet  float64 `yaml:"range_bbw_quiet"`  // bbw ratio below this counts as compressed
}

// DefaultClassifierConfig returns production thresholds.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		ShockReturnPct:     2.0,
		ShockVolumeRatio:   3.0,
		VetoReturnPct:      3.0,
		DirectionReturnPct: 0.5,
		DirectionFlowBias:  20,
		ShockConfFloor:     60,

		BreakoutBlocks:      3,
		BreakoutBlockSize:   5,
		BreakoutVolumeRatio: 2.0,
		BreakoutADX:         25.0,
		BreakoutMinMet:      2,
		BreakoutADXBonus:    30.0,

		RangeADXQuiet: 20.0,
		RangeADXLoose: 25.0,
		RangeBBWQuiet: 1.0,
	}
}

// Inputs is everything a single classification consumes. All readings are
// pre-fetched; Classify itself performs no I/O.
type Inputs struct {
	Symbol    string
	Timeframe string
	Timestamp time.Time

	Price float64

	// One-minute candles ordered oldest to newest; the last
	// BreakoutBlocks*BreakoutBlockSize are used for the block check.
	Candles1m []domain.Candle

	Return5mPct   *float64
	VolumeRatio5m *float64
	BBWRatio      *float64

	POC *float64
	VAH *float64
	VAL *float64

	ADX  *indicators.ADXResult
	Flow flow.Result
}

// Classifier turns per-cycle inputs into a RANGE/BREAKOUT/SHOCK label.
type Classifier struct {
	config ClassifierConfig
}

// NewClassifier creates a classifier with the given config.
func NewClassifier(config ClassifierConfig) *Classifier {
	return &Classifier{config: config}
}

// NewDefaultClassifier creates a classifier with production thresholds.
func NewDefaultClassifier() *Classifier {
	return &Classifier{config: DefaultClassifierConfig()}
}

// Classify evaluates the priority-ordered decision tree: SHOCK, then
// BREAKOUT, then RANGE as the fallback. The ordering is load-bearing: a
// shock invalidates the reliability of the slower breakout confirmation, so
// SHOCK preempts BREAKOUT even when both condition sets hold.
func (c *Classifier) Classify(in Inputs) (*Result, error) {
	if in.Symbol == "" {
		return nil, fmt.Errorf("classify: symbol is required")
	}

	result := &Result{
		Symbol:    in.Symbol,
		Timeframe: in.Timeframe,
		Timestamp: in.Timestamp,
		BBWRatio:  in.BBWRatio,
		POC:       in.POC,
		VAH:       in.VAH,
		VAL:       in.VAL,
		PriceVsVA: priceVsVA(in.Price, in.VAH, in.VAL),
		FlowBias:  in.Flow.Bias,
		FlowShock: in.Flow.Shock,
	}
	if in.ADX != nil {
		result.ADX14 = domain.Float(in.ADX.ADX)
		result.PlusDI = domain.Float(in.ADX.PlusDI)
		result.MinusDI = domain.Float(in.ADX.MinusDI)
	}

	// Breakout conditions are evaluated up front because a SHOCK
	// classification still reports breakout alignment via ACCEL.
	conditions, breakoutDir := c.breakoutConditions(in)
	met := 0
	for _, ok := range conditions {
		if ok {
			met++
		}
	}
	result.BreakoutConditions = conditions
	result.BreakoutConfirmed = met >= c.config.BreakoutMinMet

	if c.isShock(in) {
		c.fillShock(result, in, breakoutDir)
		return result, nil
	}

	if result.BreakoutConfirmed {
		result.Regime = Breakout
		conf := 50 + met*15
		if in.ADX != nil && in.ADX.ADX > c.config.BreakoutADXBonus {
			conf += 10
		}
		if conf > 100 {
			conf = 100
		}
		result.Confidence = conf
		return result, nil
	}

	result.Regime = Range
	result.Confidence = c.rangeConfidence(in, result.PriceVsVA)
	return result, nil
}

func (c *Classifier) isShock(in Inputs) bool {
	if in.Return5mPct != nil && math.Abs(*in.Return5mPct) >= c.config.ShockReturnPct {
		return true
	}
	if in.VolumeRatio5m != nil && *in.VolumeRatio5m >= c.config.ShockVolumeRatio {
		return true
	}
	return in.Flow.Shock
}

func (c *Classifier) fillShock(result *Result, in Inputs, breakoutDir *ShockDirection) {
	result.Regime = Shock

	ret := 0.0
	if in.Return5mPct != nil {
		ret = *in.Return5mPct
	}
	volRatio := 0.0
	if in.VolumeRatio5m != nil {
		volRatio = *in.VolumeRatio5m
	}

	// Direction: price move first, flow bias second, otherwise unknown.
	if math.Abs(ret) >= c.config.DirectionReturnPct {
		dir := ShockUp
		if ret < 0 {
			dir = ShockDown
		}
		result.ShockDirection = &dir
	} else if in.Flow.Bias > c.config.DirectionFlowBias {
		dir := ShockUp
		result.ShockDirection = &dir
	} else if in.Flow.Bias < -c.config.DirectionFlowBias {
		dir := ShockDown
		result.ShockDirection = &dir
	}

	// Sub-type: VETO always wins on a violent move, regardless of alignment.
	var st ShockType
	switch {
	case math.Abs(ret) >= c.config.VetoReturnPct:
		st = ShockVeto
	case result.BreakoutConfirmed && breakoutDir != nil && c.flowAgrees(*breakoutDir, in.Flow.Bias):
		st = ShockAccel
	default:
		st = ShockRiskDown
	}
	result.ShockType = &st

	conf := math.Abs(ret)*20 + volRatio*10
	if conf > 100 {
		conf = 100
	}
	if int(conf) < c.config.ShockConfFloor {
		result.Confidence = c.config.ShockConfFloor
	} else {
		result.Confidence = int(conf)
	}
}

func (c *Classifier) flowAgrees(dir ShockDirection, bias int) bool {
	if dir == ShockUp {
		return bias > c.config.DirectionFlowBias
	}
	return bias < -c.config.DirectionFlowBias
}

// breakoutConditions evaluates the three independent breakout checks and
// reports, for the block condition, which side price broke toward.
func (c *Classifier) breakoutConditions(in Inputs) (map[string]bool, *ShockDirection) {
	conditions := map[string]bool{
		"va_blocks":    false,
		"volume_ratio": false,
		"adx":          false,
	}

	var blockDir *ShockDirection
	need := c.config.BreakoutBlocks * c.config.BreakoutBlockSize
	if in.VAH != nil && in.VAL != nil && c.config.BreakoutBlockSize > 0 && len(in.Candles1m) >= need {
		window := in.Candles1m[len(in.Candles1m)-need:]
		allAbove := true
		allBelow := true
		// Each block is judged by its closing candle; intra-block dips
		// back into the value area do not reset the count.
		for b := 0; b < c.config.BreakoutBlocks; b++ {
			blockClose := window[(b+1)*c.config.BreakoutBlockSize-1].Close
			if blockClose <= *in.VAH {
				allAbove = false
			}
			if blockClose >= *in.VAL {
				allBelow = false
			}
		}
		if allAbove {
			conditions["va_blocks"] = true
			dir := ShockUp
			blockDir = &dir
		} else if allBelow {
			conditions["va_blocks"] = true
			dir := ShockDown
			blockDir = &dir
		}
	}

	if in.VolumeRatio5m != nil && *in.VolumeRatio5m >= c.config.BreakoutVolumeRatio {
		conditions["volume_ratio"] = true
	}
	if in.ADX != nil && in.ADX.ADX > c.config.BreakoutADX {
		conditions["adx"] = true
	}

	return conditions, blockDir
}

func (c *Classifier) rangeConfidence(in Inputs, vsVA PriceVsVA) int {
	adxKnown := in.ADX != nil
	bbwKnown := in.BBWRatio != nil

	if adxKnown && bbwKnown && in.ADX.ADX < c.config.RangeADXQuiet && *in.BBWRatio < c.config.RangeBBWQuiet {
		// The high-confidence band requires a known value area with price inside.
		if vsVA == InsideVA && in.VAH != nil && in.VAL != nil {
			return 85
		}
		return 65
	}
	if adxKnown && in.ADX.ADX < c.config.RangeADXLoose {
		return 55
	}
	return 50
}

func priceVsVA(price float64, vah, val *float64) PriceVsVA {
	if vah == nil || val == nil {
		return InsideVA
	}
	switch {
	case price > *vah:
		return AboveVAH
	case price < *val:
		return BelowVAL
	default:
		return InsideVA
	}
}
