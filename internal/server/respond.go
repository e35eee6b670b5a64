package server

import (
	"errors"
	"net/http"
	"strconv"

	"invest-settlement-go/internal/models"
	"invest-settlement-go/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps the store's sentinel errors onto HTTP statuses. Unmapped
// errors are logged and returned as an opaque 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrKycRequired):
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrInsufficientFunds):
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrDuplicateTxHash),
		errors.Is(err, store.ErrDuplicateActiveInvestment),
		errors.Is(err, store.ErrInvalidStateTransition),
		errors.Is(err, store.ErrAlreadyRun),
		errors.Is(err, store.ErrConcurrentModification):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrExternalService):
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
	default:
		zap.L().Error("Unhandled request error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal error"})
	}
}

// listFilter builds the common list query filter from limit/offset/status/chain
// query parameters.
func listFilter(c *gin.Context) store.ListFilter {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return store.ListFilter{
		Status: c.Query("status"),
		Chain:  c.Query("chain"),
		Limit:  limit,
		Offset: offset,
	}
}
