package match

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/timeduel/go/internal/models"
)

const (
	// MatchAdminServiceName is the fully-qualified name of the admin service.
	MatchAdminServiceName = "timeduel.match.v1.MatchAdminService"

	CreateChallengeProcedure = "/" + MatchAdminServiceName + "/CreateChallenge"
	GetMatchProcedure        = "/" + MatchAdminServiceName + "/GetMatch"
	ForceCleanupProcedure    = "/" + MatchAdminServiceName + "/ForceCleanup"
	ListOnlineProcedure      = "/" + MatchAdminServiceName + "/ListOnline"
)

type ChallengeRequest struct {
	ChallengerID string `json:"challengerId,omitempty"`
	GuestToken   string `json:"guestToken,omitempty"`
	GuestName    string `json:"guestName,omitempty"`
	OpponentID   string `json:"opponentId"`
	TotalRounds  int    `json:"totalRounds,omitempty"`
}

type MatchResponse struct {
	Match *MatchView `json:"match"`
}

type GetMatchRequest struct {
	MatchID string `json:"matchId"`
}

type ForceCleanupRequest struct{}

type ForceCleanupResponse struct {
	Cleaned int `json:"cleaned"`
}

type ListOnlineRequest struct{}

type ListOnlineResponse struct {
	Users []models.PresenceEntry `json:"users"`
}

// MatchView is the wire form of a match.
type MatchView struct {
	ID            string               `json:"id"`
	Kind          models.MatchKind     `json:"kind"`
	Player1       models.Participant   `json:"player1"`
	Player2       models.Participant   `json:"player2"`
	GoalTimeMs    int                  `json:"goalTime"`
	Status        models.MatchStatus   `json:"status"`
	Player1Score  int                  `json:"player1Score"`
	Player2Score  int                  `json:"player2Score"`
	CurrentRound  int                  `json:"currentRound"`
	TotalRounds   int                  `json:"totalRounds"`
	Rounds        []models.RoundResult `json:"rounds"`
	WinnerID      string               `json:"winnerId,omitempty"`
	Forfeit       bool                 `json:"forfeit"`
	CancelReason  string               `json:"cancelReason,omitempty"`
	GameStartedAt *time.Time           `json:"gameStartedAt,omitempty"`
	GameEndedAt   *time.Time           `json:"gameEndedAt,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
}

// NewMatchView converts a match to its wire form.
func NewMatchView(m *models.Match) *MatchView {
	p1, p2 := m.Variant.Participants()
	rounds := m.Rounds
	if rounds == nil {
		rounds = []models.RoundResult{}
	}
	return &MatchView{
		ID:            m.ID.String(),
		Kind:          m.Variant.Kind(),
		Player1:       p1,
		Player2:       p2,
		GoalTimeMs:    m.GoalTimeMs,
		Status:        m.Status,
		Player1Score:  m.Player1.Score,
		Player2Score:  m.Player2.Score,
		CurrentRound:  m.CurrentRound,
		TotalRounds:   m.TotalRounds,
		Rounds:        rounds,
		WinnerID:      m.WinnerID,
		Forfeit:       m.Forfeit,
		CancelReason:  m.CancelReason,
		GameStartedAt: m.GameStartedAt,
		GameEndedAt:   m.GameEndedAt,
		CreatedAt:     m.CreatedAt,
	}
}

// ChallengeApp defines what the service layer needs from the match application
type ChallengeApp interface {
	CreateChallenge(ctx context.Context, req CreateChallengeRequest) (*models.Match, error)
	GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error)
}

// Sweeper runs one stale-match cleanup pass.
type Sweeper interface {
	SweepStale(ctx context.Context) (int, error)
}

// OnlineLister returns a presence snapshot.
type OnlineLister interface {
	ListOnline() []models.PresenceEntry
}

// Service implements the MatchAdminService connect API
type Service struct {
	app     ChallengeApp
	sweeper Sweeper
	online  OnlineLister
}

// NewService creates a new match admin service
func NewService(app ChallengeApp, sweeper Sweeper, online OnlineLister) *Service {
	return &Service{
		app:     app,
		sweeper: sweeper,
		online:  online,
	}
}

// NewHandler mounts every admin procedure under the service path.
func (s *Service) NewHandler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSONCodec()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateChallengeProcedure, connect.NewUnaryHandler(CreateChallengeProcedure, s.CreateChallenge, opts...))
	mux.Handle(GetMatchProcedure, connect.NewUnaryHandler(GetMatchProcedure, s.GetMatch, opts...))
	mux.Handle(ForceCleanupProcedure, connect.NewUnaryHandler(ForceCleanupProcedure, s.ForceCleanup, opts...))
	mux.Handle(ListOnlineProcedure, connect.NewUnaryHandler(ListOnlineProcedure, s.ListOnline, opts...))
	return "/" + MatchAdminServiceName + "/", mux
}

// CreateChallenge creates a waiting match between two players
func (s *Service) CreateChallenge(ctx context.Context, req *connect.Request[ChallengeRequest]) (*connect.Response[MatchResponse], error) {
	m, err := s.app.CreateChallenge(ctx, CreateChallengeRequest{
		ChallengerID: strings.TrimSpace(req.Msg.ChallengerID),
		GuestToken:   strings.TrimSpace(req.Msg.GuestToken),
		GuestName:    strings.TrimSpace(req.Msg.GuestName),
		OpponentID:   strings.TrimSpace(req.Msg.OpponentID),
		TotalRounds:  req.Msg.TotalRounds,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&MatchResponse{Match: NewMatchView(m)}), nil
}

// GetMatch retrieves a match by ID
func (s *Service) GetMatch(ctx context.Context, req *connect.Request[GetMatchRequest]) (*connect.Response[MatchResponse], error) {
	id, err := uuid.Parse(req.Msg.MatchID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	m, err := s.app.GetMatch(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&MatchResponse{Match: NewMatchView(m)}), nil
}

// ForceCleanup runs the stale-match sweep immediately
func (s *Service) ForceCleanup(ctx context.Context, _ *connect.Request[ForceCleanupRequest]) (*connect.Response[ForceCleanupResponse], error) {
	n, err := s.sweeper.SweepStale(ctx)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&ForceCleanupResponse{Cleaned: n}), nil
}

// ListOnline returns every connected user
func (s *Service) ListOnline(_ context.Context, _ *connect.Request[ListOnlineRequest]) (*connect.Response[ListOnlineResponse], error) {
	users := s.online.ListOnline()
	if users == nil {
		users = []models.PresenceEntry{}
	}
	return connect.NewResponse(&ListOnlineResponse{Users: users}), nil
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidChallenge):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, ErrPlayerBusy), errors.Is(err, ErrOpponentOffline):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, models.ErrMatchNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// AdminClient calls MatchAdminService over connect.
type AdminClient struct {
	createChallenge *connect.Client[ChallengeRequest, MatchResponse]
	getMatch        *connect.Client[GetMatchRequest, MatchResponse]
	forceCleanup    *connect.Client[ForceCleanupRequest, ForceCleanupResponse]
	listOnline      *connect.Client[ListOnlineRequest, ListOnlineResponse]
}

// NewAdminClient builds a client against baseURL.
func NewAdminClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AdminClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSONCodec()}, opts...)
	return &AdminClient{
		createChallenge: connect.NewClient[ChallengeRequest, MatchResponse](httpClient, baseURL+CreateChallengeProcedure, opts...),
		getMatch:        connect.NewClient[GetMatchRequest, MatchResponse](httpClient, baseURL+GetMatchProcedure, opts...),
		forceCleanup:    connect.NewClient[ForceCleanupRequest, ForceCleanupResponse](httpClient, baseURL+ForceCleanupProcedure, opts...),
		listOnline:      connect.NewClient[ListOnlineRequest, ListOnlineResponse](httpClient, baseURL+ListOnlineProcedure, opts...),
	}
}

func (c *AdminClient) CreateChallenge(ctx context.Context, req *ChallengeRequest) (*MatchView, error) {
	resp, err := c.createChallenge.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Match, nil
}

func (c *AdminClient) GetMatch(ctx context.Context, matchID string) (*MatchView, error) {
	resp, err := c.getMatch.CallUnary(ctx, connect.NewRequest(&GetMatchRequest{MatchID: matchID}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Match, nil
}

func (c *AdminClient) ForceCleanup(ctx context.Context) (int, error) {
	resp, err := c.forceCleanup.CallUnary(ctx, connect.NewRequest(&ForceCleanupRequest{}))
	if err != nil {
		return 0, err
	}
	return resp.Msg.Cleaned, nil
}

func (c *AdminClient) ListOnline(ctx context.Context) ([]models.PresenceEntry, error) {
	resp, err := c.listOnline.CallUnary(ctx, connect.NewRequest(&ListOnlineRequest{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Users, nil
}
