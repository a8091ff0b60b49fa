package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	votedomain "github.com/smallbiznis/versus/internal/vote/domain"
	"github.com/smallbiznis/versus/pkg/db/pagination"
)

type recordVoteRequest struct {
	CategoryID   string            `json:"category_id"`
	ContestantID string            `json:"contestant_id"`
	OpponentID   string            `json:"opponent_id"`
	WinnerID     string            `json:"winner_id"`
	UserID       string            `json:"user_id"`
	Metadata     map[string]string `json:"metadata"`
}

func (s *Server) RecordVote(c *gin.Context) {
	var req recordVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.voteSvc.Record(c.Request.Context(), votedomain.RecordRequest{
		CategoryID:   strings.TrimSpace(req.CategoryID),
		ContestantID: strings.TrimSpace(req.ContestantID),
		OpponentID:   strings.TrimSpace(req.OpponentID),
		WinnerID:     strings.TrimSpace(req.WinnerID),
		UserID:       strings.TrimSpace(req.UserID),
		Metadata:     req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListVotesByCategory(c *gin.Context) {
	var query struct {
		ItemID string `form:"itemId"`
		pagination.Pagination
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	votes, pageInfo, err := s.voteSvc.ListByCategory(c.Request.Context(), votedomain.ListRequest{
		CategoryID: strings.TrimSpace(c.Param("categoryId")),
		ItemID:     strings.TrimSpace(query.ItemID),
		Pagination: query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": votes, "page_info": pageInfo})
}

func (s *Server) CountVotes(c *gin.Context) {
	count, err := s.voteSvc.Count(c.Request.Context(), strings.TrimSpace(c.Query("categoryId")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"count": count}})
}

func (s *Server) VoteStats(c *gin.Context) {
	days := 30
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			AbortWithError(c, newValidationError("days", "invalid_days", "invalid days"))
			return
		}
		days = parsed
	}

	stats, err := s.voteSvc.Stats(c.Request.Context(), days)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

func (s *Server) PurgeVotesAfter(c *gin.Context) {
	cutoff, err := parseCutoff(c.Query("after"))
	if err != nil {
		AbortWithError(c, newValidationError("after", "invalid_cutoff", "invalid cutoff"))
		return
	}

	deleted, err := s.voteSvc.PurgeAfter(c.Request.Context(), cutoff)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": deleted}})
}

func (s *Server) PurgeScoresBefore(c *gin.Context) {
	cutoff, err := parseCutoff(c.Query("before"))
	if err != nil {
		AbortWithError(c, newValidationError("before", "invalid_cutoff", "invalid cutoff"))
		return
	}

	deleted, err := s.scoreSvc.PurgeBefore(c.Request.Context(), cutoff)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": deleted}})
}

func parseCutoff(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
