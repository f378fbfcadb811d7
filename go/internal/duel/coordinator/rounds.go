package coordinator

import (
	"time"

	"github.com/mcdev12/timeduel/go/internal/models"
)

// settleRound records the current round on m and credits the round winner.
// The player whose time is strictly closer to the goal wins; equal
// differences leave both scores unchanged.
func settleRound(m *models.Match, now time.Time) models.RoundResult {
	result := models.RoundResult{
		RoundNumber:   m.CurrentRound,
		GoalTimeMs:    m.GoalTimeMs,
		Player1TimeMs: copyInt(m.Player1.TimeMs),
		Player2TimeMs: copyInt(m.Player2.TimeMs),
		CompletedAt:   now,
	}

	switch roundWinner(m) {
	case models.SlotPlayer1:
		m.Player1.Score++
		result.RoundWinner = m.PlayerID(models.SlotPlayer1)
	case models.SlotPlayer2:
		m.Player2.Score++
		result.RoundWinner = m.PlayerID(models.SlotPlayer2)
	}

	m.Rounds = append(m.Rounds, result)
	return result
}

func roundWinner(m *models.Match) models.Slot {
	if m.Player1.TimeMs == nil || m.Player2.TimeMs == nil {
		return models.SlotNone
	}
	d1 := absDiff(*m.Player1.TimeMs, m.GoalTimeMs)
	d2 := absDiff(*m.Player2.TimeMs, m.GoalTimeMs)
	switch {
	case d1 < d2:
		return models.SlotPlayer1
	case d2 < d1:
		return models.SlotPlayer2
	}
	return models.SlotNone
}

// matchDecided reports whether no further round should be played: the last
// round is done or one player already holds a majority.
func matchDecided(m *models.Match) bool {
	winThreshold := (m.TotalRounds + 1) / 2
	return m.CurrentRound >= m.TotalRounds ||
		m.Player1.Score >= winThreshold ||
		m.Player2.Score >= winThreshold
}

// overallWinner returns the identity with the strictly higher score, or ""
// on a tie.
func overallWinner(m *models.Match) string {
	switch {
	case m.Player1.Score > m.Player2.Score:
		return m.PlayerID(models.SlotPlayer1)
	case m.Player2.Score > m.Player1.Score:
		return m.PlayerID(models.SlotPlayer2)
	}
	return ""
}

// advanceRound moves m to the next round with a fresh goal.
func advanceRound(m *models.Match, goalMs int) {
	m.CurrentRound++
	m.GoalTimeMs = goalMs
	m.Player1.TimeMs, m.Player1.ClickedAt = nil, nil
	m.Player2.TimeMs, m.Player2.ClickedAt = nil, nil
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

func diffPtr(t *int, goal int) *int {
	if t == nil {
		return nil
	}
	d := absDiff(*t, goal)
	return &d
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func roundFinishedPayload(m *models.Match, r models.RoundResult) RoundFinishedPayload {
	return RoundFinishedPayload{
		Round:    r.RoundNumber,
		GoalTime: r.GoalTimeMs,
		Player1: PlayerRoundResult{
			PlayerID:   m.PlayerID(models.SlotPlayer1),
			Time:       r.Player1TimeMs,
			Difference: diffPtr(r.Player1TimeMs, r.GoalTimeMs),
			Score:      m.Player1.Score,
		},
		Player2: PlayerRoundResult{
			PlayerID:   m.PlayerID(models.SlotPlayer2),
			Time:       r.Player2TimeMs,
			Difference: diffPtr(r.Player2TimeMs, r.GoalTimeMs),
			Score:      m.Player2.Score,
		},
		RoundWinner: r.RoundWinner,
		Scores:      scoresOf(m),
	}
}

func gameFinishedPayload(m *models.Match) GameFinishedPayload {
	p1 := m.Participant(models.SlotPlayer1)
	p2 := m.Participant(models.SlotPlayer2)
	rounds := make([]RoundResult, 0, len(m.Rounds))
	for _, r := range m.Rounds {
		rounds = append(rounds, RoundResult{
			Round:       r.RoundNumber,
			GoalTime:    r.GoalTimeMs,
			Player1Time: r.Player1TimeMs,
			Player2Time: r.Player2TimeMs,
			RoundWinner: r.RoundWinner,
		})
	}

	var duration time.Duration
	if m.GameStartedAt != nil && m.GameEndedAt != nil {
		duration = m.GameEndedAt.Sub(*m.GameStartedAt)
	}

	return GameFinishedPayload{
		MatchID:    m.ID.String(),
		Player1:    PlayerTotal{PlayerID: p1.ID, Name: p1.DisplayName, Score: m.Player1.Score},
		Player2:    PlayerTotal{PlayerID: p2.ID, Name: p2.DisplayName, Score: m.Player2.Score},
		Rounds:     rounds,
		Winner:     m.WinnerID,
		DurationMs: duration.Milliseconds(),
	}
}

func scoresOf(m *models.Match) Scores {
	return Scores{Player1: m.Player1.Score, Player2: m.Player2.Score}
}

func matchSummary(m *models.Match) MatchSummary {
	p1 := m.Participant(models.SlotPlayer1)
	p2 := m.Participant(models.SlotPlayer2)
	return MatchSummary{
		ID:           m.ID.String(),
		Player1ID:    p1.ID,
		Player1Name:  p1.DisplayName,
		Player2ID:    p2.ID,
		Player2Name:  p2.DisplayName,
		Status:       string(m.Status),
		GoalTime:     m.GoalTimeMs,
		CurrentRound: m.CurrentRound,
		TotalRounds:  m.TotalRounds,
		Player1Score: m.Player1.Score,
		Player2Score: m.Player2.Score,
	}
}

func sessionSummary(s *models.LiveSession) SessionSummary {
	return SessionSummary{
		Phase:          string(s.Phase),
		P1Connected:    s.Player1.Connected,
		P2Connected:    s.Player2.Connected,
		RoundStartedAt: s.RoundStartedAt,
	}
}
