package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	snapshotdomain "github.com/smallbiznis/versus/internal/snapshot/domain"
)

const defaultSnapshotLimit = 100

type snapshotResponse struct {
	ItemID     string    `json:"item_id"`
	CategoryID string    `json:"category_id"`
	Score      float64   `json:"score"`
	Ranking    int       `json:"ranking"`
	Date       time.Time `json:"date"`
}

func (s *Server) ListCategorySnapshots(c *gin.Context) {
	categoryID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || categoryID == 0 {
		AbortWithError(c, newValidationError("id", "invalid_category", "invalid category"))
		return
	}

	limit, err := parsePositiveInt(c.Query("limit"), defaultSnapshotLimit)
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
		return
	}

	rows, err := s.snapshots.ListByCategory(c.Request.Context(), s.db, categoryID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": toSnapshotResponses(rows)})
}

func (s *Server) ListItemSnapshots(c *gin.Context) {
	itemID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || itemID == 0 {
		AbortWithError(c, newValidationError("id", "invalid_item", "invalid item"))
		return
	}

	categoryID, err := snowflake.ParseString(strings.TrimSpace(c.Query("categoryId")))
	if err != nil || categoryID == 0 {
		AbortWithError(c, newValidationError("categoryId", "invalid_category", "invalid category"))
		return
	}

	limit, err := parsePositiveInt(c.Query("limit"), defaultSnapshotLimit)
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
		return
	}

	rows, err := s.snapshots.ListByItem(c.Request.Context(), s.db, itemID, categoryID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": toSnapshotResponses(rows)})
}

func toSnapshotResponses(rows []snapshotdomain.Snapshot) []snapshotResponse {
	resp := make([]snapshotResponse, 0, len(rows))
	for i := range rows {
		resp = append(resp, snapshotResponse{
			ItemID:     rows[i].ItemID.String(),
			CategoryID: rows[i].CategoryID.String(),
			Score:      rows[i].Score,
			Ranking:    rows[i].Ranking,
			Date:       rows[i].Date,
		})
	}
	return resp
}
