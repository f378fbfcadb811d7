package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/mcdev12/timeduel/go/internal/config"
	"github.com/mcdev12/timeduel/go/internal/dbconfig"
	"github.com/mcdev12/timeduel/go/internal/match"
	"github.com/mcdev12/timeduel/go/internal/models"
)

// DemoMatch is one entry of demo_matches.json. A missing player1_id makes
// it a guest challenge.
type DemoMatch struct {
	Player1ID   string `json:"player1_id"`
	GuestName   string `json:"guest_name"`
	Player2ID   string `json:"player2_id"`
	TotalRounds int    `json:"total_rounds"`
}

type seedRow struct {
	ID          uuid.UUID
	Kind        models.MatchKind
	Player1ID   *string
	GuestToken  *string
	GuestName   *string
	Player2ID   string
	GoalTimeMs  int
	TotalRounds int
}

func buildRows(demos []DemoMatch, goals match.GoalGenerator, defaultRounds int) ([]seedRow, error) {
	rows := make([]seedRow, 0, len(demos))
	for i, d := range demos {
		if d.Player2ID == "" {
			return nil, fmt.Errorf("entry %d: player2_id is required", i)
		}
		if d.Player1ID == d.Player2ID {
			return nil, fmt.Errorf("entry %d: players must differ", i)
		}
		rounds := d.TotalRounds
		if rounds <= 0 {
			rounds = defaultRounds
		}
		row := seedRow{
			ID:          uuid.New(),
			Kind:        models.MatchKindRegistered,
			Player2ID:   d.Player2ID,
			GoalTimeMs:  goals.NextGoalMs(),
			TotalRounds: rounds,
		}
		if d.Player1ID == "" {
			token, err := guestToken()
			if err != nil {
				return nil, err
			}
			name := d.GuestName
			if name == "" {
				name = "Guest"
			}
			row.Kind = models.MatchKindGuestChallenge
			row.GuestToken = &token
			row.GuestName = &name
		} else {
			p1 := d.Player1ID
			row.Player1ID = &p1
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func guestToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate guest token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	// 1) Load demo_matches.json
	path := "go/internal/assets/demo_matches.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
		os.Exit(1)
	}
	var demos []DemoMatch
	if err := json.Unmarshal(data, &demos); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal demo matches: %v\n", err)
		os.Exit(1)
	}

	// 2) Build rows with goals drawn from the configured bounds
	rules := config.DefaultRules()
	goals, err := match.NewUniformGoal(rules.MinGoalMs, rules.MaxGoalMs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "goal generator: %v\n", err)
		os.Exit(1)
	}
	rows, err := buildRows(demos, goals, rules.TotalRounds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build rows: %v\n", err)
		os.Exit(1)
	}

	// 3) Connect to DB
	cfg, err := dbconfig.NewConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "db config: %v\n", err)
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 4) Seed matches
	total, inserted, skipped, errs := len(rows), 0, 0, 0
	for _, r := range rows {
		tag, err := pool.Exec(ctx, `
            INSERT INTO matches (
              id, kind, player1_id, guest_token, guest_name, player2_id,
              goal_time_ms, status, current_round, total_rounds
            ) VALUES ($1,$2,$3,$4,$5,$6,$7,'waiting',1,$8)
            ON CONFLICT (id) DO NOTHING
        `, r.ID, string(r.Kind), r.Player1ID, r.GuestToken, r.GuestName, r.Player2ID, r.GoalTimeMs, r.TotalRounds)
		if err != nil {
			fmt.Fprintf(os.Stderr, "insert match %s: %v\n", r.ID, err)
			errs++
			continue
		}
		if tag.RowsAffected() == 1 {
			inserted++
			fmt.Printf("match %s: %s vs %s goal=%dms\n", r.ID, participant(r), r.Player2ID, r.GoalTimeMs)
		} else {
			skipped++
		}
	}
	fmt.Printf(
		"Matches seed: total=%d inserted=%d skipped=%d errors=%d\n",
		total, inserted, skipped, errs,
	)

	// 5) Seed empty stats rows for every registered player
	seen := make(map[string]struct{})
	total, inserted, skipped, errs = 0, 0, 0, 0
	for _, r := range rows {
		for _, id := range []*string{r.Player1ID, &r.Player2ID} {
			if id == nil {
				continue
			}
			if _, ok := seen[*id]; ok {
				continue
			}
			seen[*id] = struct{}{}
			total++
			tag, err := pool.Exec(ctx, `
                INSERT INTO player_stats (user_id) VALUES ($1)
                ON CONFLICT (user_id) DO NOTHING
            `, *id)
			if err != nil {
				errs++
				continue
			}
			if tag.RowsAffected() == 1 {
				inserted++
			} else {
				skipped++
			}
		}
	}
	fmt.Printf(
		"Player stats seed: total=%d inserted=%d skipped=%d errors=%d\n",
		total, inserted, skipped, errs,
	)
}

func participant(r seedRow) string {
	if r.Player1ID != nil {
		return *r.Player1ID
	}
	return "guest:" + *r.GuestName
}
