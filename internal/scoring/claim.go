package scoring

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	baseScore = 15
	minScore  = 5
	maxScore  = 98

	fraudThreshold  = 75
	reviewThreshold = 45

	highAmountThreshold     = 10000.0
	standardAmountThreshold = 5000.0
	minProviderIDLength     = 5
	perturbationRange       = 10

	reviewConfidence = 88.5
)

// Decision is the three-way outcome of a claim evaluation.
type Decision struct {
	Label string
	Class string
}

var (
	Legitimate    = Decision{Label: "Legitimate", Class: "legit"}
	ManualReview  = Decision{Label: "Manual Review Needed", Class: "review"}
	FraudDetected = Decision{Label: "Fraud Detected", Class: "fraud"}
)

// ClaimInput holds the claim attributes consumed by the evaluator.
type ClaimInput struct {
	Amount     float64 `json:"amount"`
	DiagCode   string  `json:"diagCode"`
	ProviderID string  `json:"providerId"`
}

// Prediction is the evaluator output returned to callers.
type Prediction struct {
	Score         int      `json:"score"`
	Decision      string   `json:"decision"`
	DecisionClass string   `json:"decisionClass"`
	Confidence    float64  `json:"confidence"`
	Factors       []string `json:"factors"`
}

// RandomSource supplies the score perturbation. *rand.Rand satisfies it.
type RandomSource interface {
	Intn(n int) int
}

// Evaluator scores claims with fixed rules plus a small random perturbation.
type Evaluator struct {
	rnd RandomSource
}

// NewEvaluator returns an evaluator drawing from src. A nil src uses a
// time-seeded generator that is safe for concurrent use.
func NewEvaluator(src RandomSource) *Evaluator {
	if src == nil {
		src = &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
	}
	return &Evaluator{rnd: src}
}

// Evaluate applies the rule set to the claim. It accepts any input and never fails.
func (e *Evaluator) Evaluate(in ClaimInput) Prediction {
	score, factors := ruleScore(in)
	matched := len(factors) > 0

	score += e.perturbation()
	score = clamp(score, minScore, maxScore)

	decision := ClassForScore(score)
	var confidence float64
	switch decision {
	case FraudDetected:
		confidence = round1(float64(score))
		if !matched {
			factors = append(factors, "Unusual billing pattern detected by neural net")
		}
	case ManualReview:
		confidence = reviewConfidence
		if !matched {
			factors = append(factors, "Minor anomaly in historical context")
		}
	default:
		confidence = round1(float64(100 - score))
		if !matched {
			factors = append(factors, "Matches standard historical claim profiles")
		}
		// TODO: derive from provider history once one exists; currently unconditional.
		factors = append(factors, "Provider has high trust score")
	}

	return Prediction{
		Score:         score,
		Decision:      decision.Label,
		DecisionClass: decision.Class,
		Confidence:    confidence,
		Factors:       factors,
	}
}

// DeterministicScore returns the rule subtotal before perturbation and clamping.
func DeterministicScore(in ClaimInput) int {
	score, _ := ruleScore(in)
	return score
}

// ClassForScore maps a clamped score onto its decision band.
func ClassForScore(score int) Decision {
	switch {
	case score > fraudThreshold:
		return FraudDetected
	case score > reviewThreshold:
		return ManualReview
	default:
		return Legitimate
	}
}

func ruleScore(in ClaimInput) (int, []string) {
	score := baseScore
	factors := make([]string, 0, 4)

	if in.Amount > highAmountThreshold {
		score += 40
		factors = append(factors, fmt.Sprintf("Unusually high claim amount (₹%s) for typical percentile", formatAmount(in.Amount)))
	} else if in.Amount > standardAmountThreshold {
		score += 20
		factors = append(factors, "Claim amount exceeds standard threshold")
	}

	code := strings.ToUpper(in.DiagCode)
	if strings.HasPrefix(code, "X") || strings.Contains(code, "99") {
		score += 35
		factors = append(factors, fmt.Sprintf("Suspicious/Rare diagnosis code format (%s)", code))
	}

	// Length in UTF-16 code units, as browser forms report it.
	if utf16Len(in.ProviderID) < minProviderIDLength {
		score += 10
		factors = append(factors, "Unrecognized or new provider ID structure")
	}

	return score, factors
}

func (e *Evaluator) perturbation() int {
	if e == nil || e.rnd == nil {
		return 0
	}
	n := e.rnd.Intn(perturbationRange)
	return clamp(n, 0, perturbationRange-1)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
			continue
		}
		n++
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
