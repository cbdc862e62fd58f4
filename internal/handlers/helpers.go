package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"cafe_backoffice/internal/models"
	"cafe_backoffice/internal/services"
	"cafe_backoffice/internal/storage"
	"cafe_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// serviceErrors maps service sentinels onto HTTP statuses. Anything not listed
// is answered with 500.
var serviceErrors = []errorMapping{
	{services.ErrCategoryNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrProductNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrCustomerNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrOrderNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrInvoiceNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrUserNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrSettingNotFound, http.StatusNotFound, utils.ErrCodeNotFound},

	{services.ErrCategoryInUse, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrCategoryNameExists, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrProductInActiveOrder, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrCustomerEmailTaken, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrCustomerInUse, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrInvalidTransition, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrOrderNotEditable, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrRedemptionOrderImmutable, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrOrderInvoiced, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrOrderAlreadyInvoiced, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrOrderCancelled, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrInvalidInvoiceTransition, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrUsernameExists, http.StatusConflict, utils.ErrCodeConflict},

	{services.ErrInsufficientPoints, http.StatusUnprocessableEntity, utils.ErrCodeUnprocessable},
	{services.ErrNoRedeemableItems, http.StatusUnprocessableEntity, utils.ErrCodeUnprocessable},
	{services.ErrProductUnavailable, http.StatusUnprocessableEntity, utils.ErrCodeUnprocessable},

	{services.ErrCatalogValidation, http.StatusBadRequest, utils.ErrCodeValidationFailed},
	{services.ErrCustomerValidation, http.StatusBadRequest, utils.ErrCodeValidationFailed},
	{services.ErrOrderValidation, http.StatusBadRequest, utils.ErrCodeValidationFailed},
	{services.ErrCustomerRequired, http.StatusBadRequest, utils.ErrCodeValidationFailed},
	{services.ErrInvoiceValidation, http.StatusBadRequest, utils.ErrCodeValidationFailed},
	{services.ErrSettingValidation, http.StatusBadRequest, utils.ErrCodeValidationFailed},
	{services.ErrInvalidTaxRate, http.StatusBadRequest, utils.ErrCodeValidationFailed},
	{services.ErrUserValidation, http.StatusBadRequest, utils.ErrCodeValidationFailed},
	{services.ErrInvalidImage, http.StatusBadRequest, utils.ErrCodeValidationFailed},
	{services.ErrInvalidReportType, http.StatusBadRequest, utils.ErrCodeValidationFailed},
	{models.ErrInvalidPeriod, http.StatusBadRequest, utils.ErrCodeValidationFailed},
	{storage.ErrInvalidBucketName, http.StatusBadRequest, utils.ErrCodeValidationFailed},

	{services.ErrInvalidCredentials, http.StatusUnauthorized, utils.ErrCodeUnauthorized},
	{services.ErrImageStoreUnavailable, http.StatusServiceUnavailable, utils.ErrCodeUpstreamFailed},
}

// respondServiceError logs err and answers with the failure envelope matching
// the first known sentinel in its chain.
func respondServiceError(c *gin.Context, err error, op string) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			utils.LogWarn(err, op, map[string]interface{}{"status": m.status})
			utils.RespondWithError(c, utils.NewAPIError(m.status, m.code, m.target.Error(), err.Error()))
			return
		}
	}
	utils.LogError(err, op)
	utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, op+" failed.", "Internal error"))
}

func bindJSON(c *gin.Context, req interface{}, op string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.LogWarn(err, op+": failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload", err.Error()))
		return false
	}
	return true
}

// parseIDParam reads a positive int64 path parameter.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := utils.StrToInt64(c.Param(name))
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid "+name+" format", c.Param(name)))
		return 0, false
	}
	return id, true
}

// parsePagination reads page and page_size; missing values are left at zero for
// the service to default.
func parsePagination(c *gin.Context) (int, int, bool) {
	var page, pageSize int
	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &page}, {"page_size", &pageSize}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.RespondValidationFailed(c, p.name+" must be a positive integer")
			return 0, 0, false
		}
		*p.dst = n
	}
	return page, pageSize, true
}

// optionalQuery returns a pointer to the query value, or nil when absent.
func optionalQuery(c *gin.Context, name string) *string {
	if v, ok := c.GetQuery(name); ok && v != "" {
		return &v
	}
	return nil
}

func optionalInt64Query(c *gin.Context, name string) (*int64, bool) {
	v, err := utils.OptionalInt64(c.Query(name))
	if err != nil || (v != nil && *v <= 0) {
		utils.RespondValidationFailed(c, name+" must be a positive integer")
		return nil, false
	}
	return v, true
}
