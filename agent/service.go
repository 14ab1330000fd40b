package agent

import (
	"context"
	"errors"
	"net/http"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

type Service struct {
	engine     *gin.Engine
	indexer    *ChainIndexer
	listenAddr string
	logger     cmtlog.Logger
}

func NewService(listenAddr string, indexer *ChainIndexer, logger cmtlog.Logger) *Service {
	r := gin.New()
	r.Use(gin.Recovery())
	s := &Service{
		engine:     r,
		indexer:    indexer,
		listenAddr: listenAddr,
		logger:     logger.With("module", "agent"),
	}
	s.engine.POST("/getProposals", s.handleGetProposals)
	s.engine.POST("/getVotes", s.handleGetVotes)
	s.engine.POST("/getActions", s.handleGetActions)
	s.engine.POST("/getMovements", s.handleGetMovements)
	return s
}

func (s *Service) Handler() http.Handler {
	return s.engine
}

// Start serves until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.listenAddr, Handler: s.engine}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(sctx)
	}()
	s.logger.Info("agent service listening", "addr", s.listenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type Page struct {
	Page     int `json:"page" binding:"gte=0"`
	PageSize int `json:"pageSize" binding:"gte=0,lte=200"`
}

func (p Page) limits() (int, int) {
	size := p.PageSize
	if size == 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return p.Page, size
}

type GetProposalsReq struct {
	ProposalId *uint64 `json:"proposalId"`
	Status     string  `json:"status" binding:"omitempty,oneof=added finished rejected"`
	Page
}

type ProposalInfo struct {
	Proposal Proposal `json:"proposal"`
	Votes    []Vote   `json:"votes"`
}

type GetProposalsResponse struct {
	Proposals []ProposalInfo `json:"proposals"`
	Total     uint64         `json:"total"`
}

func (s *Service) handleGetProposals(c *gin.Context) {
	var response GetProposalsResponse
	response.Proposals = make([]ProposalInfo, 0)
	var requestData GetProposalsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if requestData.ProposalId != nil {
		proposal, err := s.indexer.getProposal(*requestData.ProposalId)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "proposal not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		votes, err := s.indexer.getVotes(&proposal.ProposalId, "", 0, 1000)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, ProposalInfo{Proposal: proposal, Votes: votes})
		response.Total = 1
		c.JSON(http.StatusOK, response)
		return
	}

	page, size := requestData.limits()
	proposals, total, err := s.indexer.getProposals(requestData.Status, page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Total = total
	for _, p := range proposals {
		response.Proposals = append(response.Proposals, ProposalInfo{Proposal: p, Votes: make([]Vote, 0)})
	}
	c.JSON(http.StatusOK, response)
}

type GetVotesReq struct {
	ProposalId *uint64 `json:"proposalId"`
	Voter      string  `json:"voter" binding:"omitempty,eth_addr"`
	Page
}

type GetVotesResponse struct {
	Votes []Vote `json:"votes"`
}

func (s *Service) handleGetVotes(c *gin.Context) {
	var requestData GetVotesReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if requestData.ProposalId == nil && requestData.Voter == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proposalId or voter is required"})
		return
	}
	page, size := requestData.limits()
	votes, err := s.indexer.getVotes(requestData.ProposalId, normalizeAddress(requestData.Voter), page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GetVotesResponse{Votes: votes})
}

type GetActionsReq struct {
	Pending bool `json:"pending"`
	Page
}

type GetActionsResponse struct {
	Actions []Action `json:"actions"`
	Total   uint64   `json:"total"`
}

func (s *Service) handleGetActions(c *gin.Context) {
	var requestData GetActionsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, size := requestData.limits()
	actions, total, err := s.indexer.getActions(requestData.Pending, page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GetActionsResponse{Actions: actions, Total: total})
}

type GetMovementsReq struct {
	Account string `json:"account" binding:"required,eth_addr"`
	Page
}

type GetMovementsResponse struct {
	Movements []Movement `json:"movements"`
}

func (s *Service) handleGetMovements(c *gin.Context) {
	var requestData GetMovementsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, size := requestData.limits()
	movements, err := s.indexer.getMovements(normalizeAddress(requestData.Account), page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GetMovementsResponse{Movements: movements})
}
