package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/books_valuation/models"
	"github.com/mmdatafocus/books_valuation/utils"
)

// respondError maps the engine's error kinds onto HTTP statuses.
// Anything unrecognised is attached to the gin context for customErrorLogger.
func respondError(c *gin.Context, err error) {
	var validationErrs models.ValidationErrors
	var validationErr *models.ValidationError
	var allocationErr *models.AllocationError
	var consistencyErr *models.ConsistencyError

	switch {
	case errors.As(err, &validationErrs):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": validationErrs})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": []*models.ValidationError{validationErr}})
	case errors.As(err, &allocationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": allocationErr.Error(), "allocation": allocationErr})
	case errors.As(err, &consistencyErr):
		c.JSON(http.StatusConflict, gin.H{"error": consistencyErr.Error(), "consistency": consistencyErr})
	case errors.Is(err, models.ErrAllocationConfirmed), errors.Is(err, utils.ErrLockNotObtained):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// bindAndValidate decodes the JSON body into req and runs its struct tags.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return false
	}
	fields, err := utils.ValidateStruct(req)
	if err != nil {
		respondError(c, err)
		return false
	}
	if len(fields) > 0 {
		respondError(c, models.FromFieldTags(fields))
		return false
	}
	return true
}
