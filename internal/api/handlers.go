package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contaflow/reconcile-api/internal/api/dto"
	"github.com/contaflow/reconcile-api/internal/application/reconcile"
	"github.com/contaflow/reconcile-api/internal/domain/matcher"
	"github.com/contaflow/reconcile-api/internal/domain/money"
	"github.com/contaflow/reconcile-api/internal/domain/statement"
	"github.com/contaflow/reconcile-api/internal/infrastructure/storage"
)

const dateParamLayout = "2006-01-02"

// health reports service liveness.
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// listStatements handles GET /api/reconciliation.
func (s *Server) listStatements(c *gin.Context) {
	ownerID := c.Query("owner_id")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, dto.ValidationError("owner_id is required"))
		return
	}

	filters := storage.StatementFilters{
		OwnerID: ownerID,
		Status:  c.Query("status"),
		Bank:    c.Query("bank"),
		Limit:   queryInt(c, "limit", 50),
		Offset:  queryInt(c, "offset", 0),
	}

	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse(dateParamLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ValidationError("start_date must be YYYY-MM-DD"))
			return
		}
		filters.StartDate = t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse(dateParamLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ValidationError("end_date must be YYYY-MM-DD"))
			return
		}
		filters.EndDate = t
	}

	result, err := s.repo.ListStatements(filters)
	if err != nil {
		s.writeError(c, err, "failed to list statements")
		return
	}

	c.JSON(http.StatusOK, dto.StatementListResponse{
		Statements: dto.FromStatementLines(result.Statements),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// uploadStatement handles POST /api/reconciliation.
func (s *Server) uploadStatement(c *gin.Context) {
	var req dto.UploadStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}

	if req.Format != "" && !strings.EqualFold(req.Format, "csv") {
		c.JSON(http.StatusBadRequest, dto.ValidationError("unsupported format: "+req.Format))
		return
	}

	result, err := s.service.Upload(c.Request.Context(), reconcile.UploadRequest{
		OwnerID:       req.OwnerID,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		CSVData:       req.CSVData,
	})
	if err != nil {
		s.writeError(c, err, "upload failed")
		return
	}

	c.JSON(http.StatusCreated, dto.FromUploadResult(result))
}

// reviewMatch handles PUT /api/reconciliation.
func (s *Server) reviewMatch(c *gin.Context) {
	var req dto.ReviewMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}

	match, err := s.service.ReviewMatch(c.Request.Context(), req.MatchID, matcher.Status(req.Status), req.Notes, req.VerifiedBy)
	if err != nil {
		s.writeError(c, err, "review failed")
		return
	}

	c.JSON(http.StatusOK, dto.FromMatch(match))
}

// deleteReconciliation handles DELETE /api/reconciliation. Exactly one of
// statement_id or match_id selects the record to remove.
func (s *Server) deleteReconciliation(c *gin.Context) {
	statementID := c.Query("statement_id")
	matchID := c.Query("match_id")

	switch {
	case statementID != "" && matchID != "":
		c.JSON(http.StatusBadRequest, dto.ValidationError("provide statement_id or match_id, not both"))
		return
	case statementID != "":
		if err := s.service.DeleteStatement(c.Request.Context(), statementID); err != nil {
			s.writeError(c, err, "delete statement failed")
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": statementID})
	case matchID != "":
		if err := s.service.DeleteMatch(c.Request.Context(), matchID); err != nil {
			s.writeError(c, err, "delete match failed")
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": matchID})
	default:
		c.JSON(http.StatusBadRequest, dto.ValidationError("statement_id or match_id is required"))
	}
}

// listMatches handles GET /api/reconciliation/matches.
func (s *Server) listMatches(c *gin.Context) {
	ownerID := c.Query("owner_id")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, dto.ValidationError("owner_id is required"))
		return
	}

	matches, err := s.repo.ListMatches(storage.MatchFilters{
		OwnerID: ownerID,
		Status:  c.Query("status"),
		Limit:   queryInt(c, "limit", 50),
		Offset:  queryInt(c, "offset", 0),
	})
	if err != nil {
		s.writeError(c, err, "failed to list matches")
		return
	}

	c.JSON(http.StatusOK, dto.MatchListResponse{
		Matches: dto.FromMatches(matches),
		Count:   len(matches),
	})
}

// getStats handles GET /api/reconciliation/stats.
func (s *Server) getStats(c *gin.Context) {
	ownerID := c.Query("owner_id")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, dto.ValidationError("owner_id is required"))
		return
	}

	stats, err := s.repo.Stats(ownerID)
	if err != nil {
		s.writeError(c, err, "failed to fetch stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// writeError maps domain errors onto HTTP statuses: validation failures
// are 400, missing records 404, everything else 500.
func (s *Server) writeError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, statement.ErrNoDataRows),
		errors.Is(err, statement.ErrNoValidRows),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, reconcile.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, dto.ValidationError(err.Error()))
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.NotFoundError("record"))
	default:
		s.logger.Error(logMsg, "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError())
	}
}

// queryInt parses an integer query parameter with a default value.
func queryInt(c *gin.Context, name string, defaultVal int) int {
	val := c.Query(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}
