package handler

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/jljulioa/POS-App-sub001/internal/apierror"
	"github.com/jljulioa/POS-App-sub001/internal/middleware"
	"github.com/jljulioa/POS-App-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, filter interface{}) bool {
	if err := c.ShouldBindQuery(filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return false
	}
	return validateStruct(c, filter)
}

func validateStruct(c *gin.Context, v interface{}) bool {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// pathID parses a uuid path parameter, writing 400 when it is malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service errors onto HTTP statuses. Anything unclassified
// is logged and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	var (
		stockErr   *service.InsufficientStockError
		returnErr  *service.ReturnExceedsOriginalError
		overpayErr *service.OverpaymentError
	)
	switch {
	case service.IsNotFound(err):
		c.JSON(http.StatusNotFound, apierror.WithCode("not_found", err.Error()))
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, apierror.WithCode("insufficient_stock", err.Error()))
	case errors.As(err, &returnErr):
		c.JSON(http.StatusConflict, apierror.WithCode("return_exceeds_original", err.Error()))
	case errors.As(err, &overpayErr):
		c.JSON(http.StatusConflict, apierror.WithCode("overpayment", err.Error()))
	case errors.Is(err, service.ErrInvoiceAlreadyProcessed):
		c.JSON(http.StatusConflict, apierror.WithCode("already_processed", err.Error()))
	case errors.Is(err, service.ErrDuplicate):
		c.JSON(http.StatusConflict, apierror.WithCode("duplicate", err.Error()))
	case service.IsValidation(err):
		c.JSON(http.StatusBadRequest, apierror.WithCode("invalid", err.Error()))
	case service.IsRetryable(err):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, apierror.WithCode("retry", "concurrent update, retry the request"))
	default:
		log.Error().
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Err(err).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, apierror.New("internal server error"))
	}
}
