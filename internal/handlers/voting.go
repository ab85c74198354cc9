package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	sl "github.com/14kear/sso-prettyslog/slogpretty/errors"

	domainerrors "github.com/14kear/siteVoting/internal/domain/errors"
	"github.com/14kear/siteVoting/internal/domain/models"
	"github.com/14kear/siteVoting/internal/middleware"
	"github.com/14kear/siteVoting/internal/services"
	"github.com/14kear/siteVoting/internal/services/auth"
	"github.com/14kear/siteVoting/internal/services/tally"
)

type VotingHandler struct {
	log           *slog.Logger
	votingService *services.OnlineVoting
	clock         services.Clock
}

func NewVotingHandler(log *slog.Logger, votingService *services.OnlineVoting, clock services.Clock) *VotingHandler {
	if clock == nil {
		clock = services.SystemClock{}
	}
	return &VotingHandler{log: log, votingService: votingService, clock: clock}
}

type SignInRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

type CastVoteRequest struct {
	// group приходит строкой или числом из формы; разбирает guard
	Group  json.Number `json:"group" binding:"required"`
	SiteID string      `json:"site_id" binding:"required"`
}

type SiteRequest struct {
	Name string `json:"name" binding:"required"`
	URL  string `json:"url" binding:"required"`
}

type SetupRequest struct {
	Sites   []SiteRequest `json:"sites" binding:"required"`
	EndTime time.Time     `json:"end_time" binding:"required"`
}

type statusResponse struct {
	Phase       models.Phase   `json:"phase"`
	EndTime     *time.Time     `json:"end_time,omitempty"`
	RemainingMS int64          `json:"remaining_ms"`
	Remaining   string         `json:"remaining"`
	EndsIn      string         `json:"ends_in,omitempty"`
	GroupVotes  map[string]int `json:"group_votes"`
	VotesCast   int            `json:"votes_cast"`
	GroupCap    int            `json:"group_cap"`
	Error       string         `json:"error,omitempty"`
}

type resultsResponse struct {
	Ranking    []models.Ranked    `json:"ranking"`
	Podium     []models.Ranked    `json:"podium"`
	Stage      models.RevealStage `json:"reveal_stage"`
	TotalVotes int                `json:"total_votes"`
	Rejected   []tally.Rejected   `json:"rejected"`
}

func (v *VotingHandler) GetStatus(c *gin.Context) {
	now := v.clock.Now()
	st := v.votingService.Status(now)

	resp := statusResponse{
		Phase:       st.Phase,
		RemainingMS: st.Remaining.Milliseconds(),
		Remaining:   services.FormatRemaining(st.Remaining),
		GroupVotes:  make(map[string]int, len(st.GroupVotes)),
		VotesCast:   st.VotesCast,
		GroupCap:    v.votingService.GroupCap(),
	}
	for g, n := range st.GroupVotes {
		resp.GroupVotes[strconv.Itoa(g)] = n
	}
	if !st.EndTime.IsZero() {
		end := st.EndTime
		resp.EndTime = &end
		resp.EndsIn = humanize.RelTime(end, now, "ago", "from now")
	}
	if st.LoadErr != nil {
		resp.Error = st.LoadErr.Error()
	}

	c.JSON(http.StatusOK, resp)
}

func (v *VotingHandler) GetSites(c *gin.Context) {
	sites, err := v.votingService.Sites()
	if err != nil {
		v.writeError(c, "handlers.GetSites", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sites":        sites,
		"default_view": models.ViewEmbedded,
		"view_modes":   []models.ViewMode{models.ViewEmbedded, models.ViewExternalLink},
	})
}

func (v *VotingHandler) GetResults(c *gin.Context) {
	res, err := v.votingService.Results(v.clock.Now())
	if err != nil {
		v.writeError(c, "handlers.GetResults", err)
		return
	}

	c.JSON(http.StatusOK, resultsResponse{
		Ranking:    res.Ranking,
		Podium:     res.Podium,
		Stage:      res.Stage,
		TotalVotes: res.TotalVotes,
		Rejected:   res.Rejected,
	})
}

func (v *VotingHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	identity, err := v.votingService.SignIn(c.Request.Context(), req.IDToken)
	if err != nil {
		v.writeError(c, "handlers.SignIn", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email":     identity.Email,
		"has_voted": v.votingService.HasVoted(identity.Email),
	})
}

func (v *VotingHandler) CastVote(c *gin.Context) {
	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	idToken := c.GetString(middleware.CtxIDToken)
	if idToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	voter, err := v.votingService.CastVote(c.Request.Context(), idToken, req.Group.String(), req.SiteID)
	if err != nil {
		v.writeError(c, "handlers.CastVote", err)
		return
	}

	c.JSON(http.StatusCreated, voter)
}

func (v *VotingHandler) Setup(c *gin.Context) {
	var req SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	input := make([]services.SiteInput, len(req.Sites))
	for i, s := range req.Sites {
		input[i] = services.SiteInput{Name: s.Name, URL: s.URL}
	}

	cfg, err := v.votingService.Configure(c.Request.Context(), input, req.EndTime)
	if err != nil {
		v.writeError(c, "handlers.Setup", err)
		return
	}

	c.JSON(http.StatusCreated, cfg)
}

func (v *VotingHandler) Refresh(c *gin.Context) {
	if err := v.votingService.Refresh(c.Request.Context()); err != nil {
		v.writeError(c, "handlers.Refresh", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (v *VotingHandler) Reset(c *gin.Context) {
	if err := v.votingService.Reset(c.Request.Context()); err != nil {
		v.writeError(c, "handlers.Reset", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (v *VotingHandler) GetTally(c *gin.Context) {
	counts, groups := v.votingService.Tallies()

	byGroup := make(map[string]int, len(groups))
	for g, n := range groups {
		byGroup[strconv.Itoa(g)] = n
	}

	c.JSON(http.StatusOK, gin.H{"votes": counts, "group_votes": byGroup})
}

// writeError переводит доменные ошибки в HTTP-коды.
func (v *VotingHandler) writeError(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, domainerrors.ErrInvalidURLFormat):
		status, msg = http.StatusBadRequest, domainerrors.ErrInvalidURLFormat.Error()
	case errors.Is(err, domainerrors.ErrInvalidInput):
		status, msg = http.StatusBadRequest, domainerrors.ErrInvalidInput.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domainerrors.ErrResultsSealed):
		status, msg = http.StatusForbidden, domainerrors.ErrResultsSealed.Error()
	case errors.Is(err, domainerrors.ErrAlreadyVoted):
		status, msg = http.StatusConflict, domainerrors.ErrAlreadyVoted.Error()
	case errors.Is(err, domainerrors.ErrGroupCapReached):
		status, msg = http.StatusConflict, domainerrors.ErrGroupCapReached.Error()
	case errors.Is(err, domainerrors.ErrVotingClosed):
		status, msg = http.StatusConflict, domainerrors.ErrVotingClosed.Error()
	case errors.Is(err, domainerrors.ErrWrongPhase):
		status, msg = http.StatusConflict, domainerrors.ErrWrongPhase.Error()
	case errors.Is(err, domainerrors.ErrMissingConfiguration):
		status, msg = http.StatusPreconditionFailed, domainerrors.ErrMissingConfiguration.Error()
	case errors.Is(err, domainerrors.ErrPersistenceFailure):
		status, msg = http.StatusServiceUnavailable, domainerrors.ErrPersistenceFailure.Error()
	}

	if status >= http.StatusInternalServerError {
		v.log.Error("request failed", slog.String("op", op), sl.Err(err))
	}

	c.JSON(status, gin.H{"error": msg, "detail": err.Error()})
}
