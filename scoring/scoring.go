// Package scoring turns a snapshot of round scores into final scores and
// placements. Every function here is pure: no I/O and no shared state, so the
// same calls are safe from live scoring, match editing and statistics alike.
package scoring

import (
	"math"
	"sort"
)

// ComputeFinalScore folds a participant's rounds into a final score.
// It returns nil when no score can be determined: no rounds, only unscored
// rounds, Target Score without a target, or a combination the engine does
// not aggregate (Manual rounds score among others).
func ComputeFinalScore(rounds []Round, cfg ScoresheetConfig) *float64 {
	if len(rounds) == 0 {
		return nil
	}
	// без цели расстояние не определено ни для одного режима
	if cfg.WinCondition == WinConditionTargetScore && cfg.TargetScore == nil {
		return nil
	}

	switch cfg.RoundsScore {
	case RoundsScoreAggregate:
		return aggregate(rounds)
	case RoundsScoreBestOf:
		switch cfg.WinCondition {
		case WinConditionHighestScore:
			return bestOf(rounds, func(candidate, current float64) bool { return candidate > current })
		case WinConditionLowestScore:
			return bestOf(rounds, func(candidate, current float64) bool { return candidate < current })
		case WinConditionTargetScore:
			return closestToTarget(rounds, *cfg.TargetScore)
		}
	}
	return nil
}

// ComputeFinalScores computes a final score per participant, keeping input order.
func ComputeFinalScores(participants []Participant, cfg ScoresheetConfig) []FinalScoreResult {
	results := make([]FinalScoreResult, len(participants))
	for i, p := range participants {
		results[i] = FinalScoreResult{
			ID:     p.ID,
			Score:  ComputeFinalScore(p.Rounds, cfg),
			TeamID: p.TeamID,
		}
	}
	return results
}

// ComputePlacements ranks participants by their computed final scores.
// The result is in placement order, not input order.
func ComputePlacements(participants []Participant, cfg ScoresheetConfig) []PlacementResult {
	return RankFinalScores(ComputeFinalScores(participants, cfg), cfg)
}

// RankFinalScores assigns competition-style placements to already computed
// final scores. Ties and teammates share a placement; a shared slot counts once
// toward the numbering that follows. Nil scores always rank last.
func RankFinalScores(scores []FinalScoreResult, cfg ScoresheetConfig) []PlacementResult {
	sorted := make([]FinalScoreResult, len(scores))
	copy(sorted, scores)

	better := comparatorFor(cfg)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Score, sorted[j].Score
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return better(*a, *b)
		}
	})

	placements := make([]PlacementResult, len(sorted))
	individualsBefore := 0
	teamsBefore := make(map[int]struct{})
	placement := 1

	for i, entry := range sorted {
		if i > 0 {
			prev := sorted[i-1]
			if !sameScore(entry.Score, prev.Score) && !sameTeam(entry.TeamID, prev.TeamID) {
				placement = individualsBefore + 1 + len(teamsBefore)
			}
		}

		placements[i] = PlacementResult{
			ID:        entry.ID,
			Score:     entry.Score,
			Placement: placement,
		}

		if entry.TeamID == nil {
			individualsBefore++
		} else {
			teamsBefore[*entry.TeamID] = struct{}{}
		}
	}

	return placements
}

// Winners returns the ids holding first place with a determinate score.
// Scoresheets without an automatic winner (Manual, No Winner) yield none.
func Winners(placements []PlacementResult, cfg ScoresheetConfig) []int {
	switch cfg.WinCondition {
	case WinConditionManual, WinConditionNoWinner:
		return []int{}
	}

	winners := []int{}
	for _, p := range placements {
		if p.Placement == 1 && p.Score != nil {
			winners = append(winners, p.ID)
		}
	}
	return winners
}

func aggregate(rounds []Round) *float64 {
	var (
		sum    float64
		scored bool
	)
	for _, r := range rounds {
		if r.Score == nil {
			continue
		}
		sum += *r.Score
		scored = true
	}
	if !scored {
		return nil
	}
	return &sum
}

// bestOf keeps the first round score that no later score beats.
func bestOf(rounds []Round, beats func(candidate, current float64) bool) *float64 {
	var best *float64
	for _, r := range rounds {
		if r.Score == nil {
			continue
		}
		if best == nil || beats(*r.Score, *best) {
			v := *r.Score
			best = &v
		}
	}
	return best
}

func closestToTarget(rounds []Round, target float64) *float64 {
	var best *float64
	for _, r := range rounds {
		if r.Score == nil {
			continue
		}
		v := *r.Score
		if v == target {
			return &v
		}
		if best == nil || math.Abs(v-target) < math.Abs(*best-target) {
			best = &v
		}
	}
	return best
}

// comparatorFor reports whether score a ranks strictly ahead of score b.
// Win conditions without an ordering keep the input order.
func comparatorFor(cfg ScoresheetConfig) func(a, b float64) bool {
	switch cfg.WinCondition {
	case WinConditionHighestScore:
		return func(a, b float64) bool { return a > b }
	case WinConditionLowestScore:
		return func(a, b float64) bool { return a < b }
	case WinConditionTargetScore:
		if cfg.TargetScore == nil {
			break
		}
		target := *cfg.TargetScore
		return func(a, b float64) bool { return math.Abs(a-target) < math.Abs(b-target) }
	}
	return func(a, b float64) bool { return false }
}

func sameScore(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameTeam(a, b *int) bool {
	return a != nil && b != nil && *a == *b
}
