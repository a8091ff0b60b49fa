package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	itemdomain "github.com/smallbiznis/versus/internal/item/domain"
)

type createItemRequest struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
}

type updateItemRequest struct {
	Name   *string `json:"name,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

func (s *Server) CreateItem(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.itemSvc.Create(c.Request.Context(), itemdomain.CreateRequest{
		CategoryID: strings.TrimSpace(req.CategoryID),
		Name:       strings.TrimSpace(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListItemsByCategory(c *gin.Context) {
	resp, err := s.itemSvc.ListByCategory(c.Request.Context(), strings.TrimSpace(c.Query("categoryId")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetItemByID(c *gin.Context) {
	resp, err := s.itemSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.itemSvc.Update(c.Request.Context(), itemdomain.UpdateRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		Name:   trimStringPtr(req.Name),
		Active: req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetItemScoreHistory(c *gin.Context) {
	limit, err := parsePositiveInt(c.Query("limit"), 50)
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
		return
	}

	resp, err := s.scoreSvc.History(
		c.Request.Context(),
		strings.TrimSpace(c.Param("id")),
		strings.TrimSpace(c.Query("categoryId")),
		limit,
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
