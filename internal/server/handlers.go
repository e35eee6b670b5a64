package server

import (
	"net/http"
	"strconv"

	"invest-settlement-go/internal/models"

	"github.com/gin-gonic/gin"
)

// --- account ---

func (s *Server) getAccount(c *gin.Context) {
	userId, _ := callerIdentity(c)

	account, err := s.ledger.GetAccount(c.Request.Context(), userId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (s *Server) listLedger(c *gin.Context) {
	userId, _ := callerIdentity(c)
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	entries, err := s.ledger.ListLedgerEntries(c.Request.Context(), userId, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// --- deposits ---

func (s *Server) submitDeposit(c *gin.Context) {
	userId, _ := callerIdentity(c)

	var req models.SubmitDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	deposit, err := s.ledger.SubmitDeposit(c.Request.Context(), userId, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, deposit)
}

func (s *Server) listOwnDeposits(c *gin.Context) {
	userId, _ := callerIdentity(c)

	filter := listFilter(c)
	filter.UserId = userId

	deposits, err := s.ledger.ListDeposits(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deposits)
}

func (s *Server) depositAddress(c *gin.Context) {
	address, err := s.ledger.DepositAddress(c.Request.Context(), c.Param("chain"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chain": c.Param("chain"), "address": address})
}

func (s *Server) adminListDeposits(c *gin.Context) {
	filter := listFilter(c)
	filter.UserId = c.Query("user_id")

	deposits, err := s.ledger.ListDeposits(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deposits)
}

func (s *Server) adminGetDeposit(c *gin.Context) {
	userId, isAdmin := callerIdentity(c)

	deposit, err := s.ledger.GetDeposit(c.Request.Context(), c.Param("id"), userId, isAdmin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deposit)
}

func (s *Server) confirmDeposit(c *gin.Context) {
	adminId, _ := callerIdentity(c)

	var req models.ConfirmDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	deposit, err := s.ledger.ConfirmDeposit(c.Request.Context(), c.Param("id"), adminId, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deposit)
}

func (s *Server) rejectDeposit(c *gin.Context) {
	adminId, _ := callerIdentity(c)

	var req models.RejectDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	deposit, err := s.ledger.RejectDeposit(c.Request.Context(), c.Param("id"), adminId, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deposit)
}

func (s *Server) depositStats(c *gin.Context) {
	stats, err := s.ledger.DepositStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// --- withdrawals ---

func (s *Server) requestWithdrawal(c *gin.Context) {
	userId, _ := callerIdentity(c)

	var req models.RequestWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	withdrawal, err := s.ledger.RequestWithdrawal(c.Request.Context(), userId, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, withdrawal)
}

func (s *Server) listOwnWithdrawals(c *gin.Context) {
	userId, _ := callerIdentity(c)

	filter := listFilter(c)
	filter.UserId = userId

	withdrawals, err := s.ledger.ListWithdrawals(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withdrawals)
}

func (s *Server) cancelWithdrawal(c *gin.Context) {
	userId, _ := callerIdentity(c)

	withdrawal, err := s.ledger.CancelWithdrawal(c.Request.Context(), c.Param("id"), userId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withdrawal)
}

func (s *Server) adminListWithdrawals(c *gin.Context) {
	filter := listFilter(c)
	filter.UserId = c.Query("user_id")

	withdrawals, err := s.ledger.ListWithdrawals(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withdrawals)
}

func (s *Server) adminGetWithdrawal(c *gin.Context) {
	userId, isAdmin := callerIdentity(c)

	withdrawal, err := s.ledger.GetWithdrawal(c.Request.Context(), c.Param("id"), userId, isAdmin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withdrawal)
}

func (s *Server) approveWithdrawal(c *gin.Context) {
	adminId, _ := callerIdentity(c)

	var req models.ApproveWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	withdrawal, err := s.ledger.ApproveWithdrawal(c.Request.Context(), c.Param("id"), adminId, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withdrawal)
}

func (s *Server) rejectWithdrawal(c *gin.Context) {
	adminId, _ := callerIdentity(c)

	var req models.RejectWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	withdrawal, err := s.ledger.RejectWithdrawal(c.Request.Context(), c.Param("id"), adminId, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withdrawal)
}

func (s *Server) withdrawalStats(c *gin.Context) {
	stats, err := s.ledger.WithdrawalStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// --- investments ---

func (s *Server) listInvestmentLevels(c *gin.Context) {
	levels, err := s.ledger.ListInvestmentLevels(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, levels)
}

func (s *Server) createInvestment(c *gin.Context) {
	userId, _ := callerIdentity(c)

	var req models.CreateInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	investment, err := s.ledger.CreateInvestment(c.Request.Context(), userId, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, investment)
}

func (s *Server) currentInvestment(c *gin.Context) {
	userId, _ := callerIdentity(c)

	investment, err := s.ledger.GetActiveInvestment(c.Request.Context(), userId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, investment)
}

func (s *Server) cancelInvestment(c *gin.Context) {
	userId, isAdmin := callerIdentity(c)

	investment, err := s.ledger.CancelInvestment(c.Request.Context(), c.Param("id"), userId, isAdmin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, investment)
}
