package services

import (
	"sort"

	"github.com/Dosada05/boardgame-tracker/models"
	"github.com/Dosada05/boardgame-tracker/scoring"
)

// participantsFor lines up each seat's round scores in scoresheet order.
// Rounds the seat has no score for yet stay nil.
func participantsFor(sheet *models.Scoresheet, seats []models.MatchPlayer) []scoring.Participant {
	participants := make([]scoring.Participant, len(seats))
	for i, seat := range seats {
		byRound := make(map[int]*float64, len(seat.Rounds))
		for _, rs := range seat.Rounds {
			byRound[rs.RoundID] = rs.Score
		}

		rounds := make([]scoring.Round, len(sheet.Rounds))
		for j, r := range sheet.Rounds {
			rounds[j] = scoring.Round{Score: byRound[r.ID]}
		}

		participants[i] = scoring.Participant{
			ID:     seat.ID,
			Rounds: rounds,
			TeamID: seat.TeamID,
		}
	}
	return participants
}

// finalScoresFor returns one final score per seat, in seat order. Manual
// scoresheets take the entered final score as is.
func finalScoresFor(sheet *models.Scoresheet, seats []models.MatchPlayer) []scoring.FinalScoreResult {
	if sheet.RoundsScore == scoring.RoundsScoreManual {
		out := make([]scoring.FinalScoreResult, len(seats))
		for i, seat := range seats {
			out[i] = scoring.FinalScoreResult{ID: seat.ID, Score: seat.ManualScore, TeamID: seat.TeamID}
		}
		return out
	}
	return scoring.ComputeFinalScores(participantsFor(sheet, seats), sheet.Config())
}

type seatResult struct {
	SeatID    int
	Score     *float64
	Placement *int
	Winner    bool
}

// computeResults ranks the seats with the engine. Placements for manually
// decided matches come from the caller; No Winner sheets get none.
func computeResults(sheet *models.Scoresheet, seats []models.MatchPlayer, manual map[int]int) []seatResult {
	cfg := sheet.Config()
	finals := finalScoresFor(sheet, seats)

	switch cfg.WinCondition {
	case scoring.WinConditionNoWinner:
		out := make([]seatResult, len(finals))
		for i, f := range finals {
			out[i] = seatResult{SeatID: f.ID, Score: f.Score}
		}
		return out

	case scoring.WinConditionManual:
		out := make([]seatResult, len(finals))
		for i, f := range finals {
			out[i] = seatResult{SeatID: f.ID, Score: f.Score}
			if p, ok := manual[f.ID]; ok {
				placement := p
				out[i].Placement = &placement
				out[i].Winner = p == 1
			}
		}
		sortResults(out)
		return out
	}

	placements := scoring.RankFinalScores(finals, cfg)
	winners := make(map[int]struct{})
	for _, id := range scoring.Winners(placements, cfg) {
		winners[id] = struct{}{}
	}

	out := make([]seatResult, len(placements))
	for i, p := range placements {
		placement := p.Placement
		_, won := winners[p.ID]
		out[i] = seatResult{SeatID: p.ID, Score: p.Score, Placement: &placement, Winner: won}
	}
	return out
}

// storedResults reads the outcome persisted when the match was finished.
func storedResults(seats []models.MatchPlayer) []seatResult {
	out := make([]seatResult, len(seats))
	for i, seat := range seats {
		out[i] = seatResult{SeatID: seat.ID, Score: seat.Score, Placement: seat.Placement, Winner: seat.Winner}
	}
	sortResults(out)
	return out
}

// sortResults orders by placement, seats without one last.
func sortResults(results []seatResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Placement, results[j].Placement
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
}

func standingsFrom(results []seatResult, seats []models.MatchPlayer) []models.MatchStanding {
	bySeat := make(map[int]*models.MatchPlayer, len(seats))
	for i := range seats {
		bySeat[seats[i].ID] = &seats[i]
	}

	standings := make([]models.MatchStanding, 0, len(results))
	for _, r := range results {
		standing := models.MatchStanding{
			MatchPlayerID: r.SeatID,
			Score:         r.Score,
			Winner:        r.Winner,
		}
		if r.Placement != nil {
			standing.Placement = *r.Placement
		}
		if seat, ok := bySeat[r.SeatID]; ok {
			standing.TeamID = seat.TeamID
			if seat.Player != nil {
				standing.PlayerName = seat.Player.Name
			}
		}
		standings = append(standings, standing)
	}
	return standings
}
