package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/application/service"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/investify-pos/internal/presentation/http/middleware"
	"github.com/sangkips/investify-pos/pkg/apperror"
)

// GetCashierID extracts the cashier ID from the Gin context
func GetCashierID(c *gin.Context) *uuid.UUID {
	id := middleware.GetCashierID(c)
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// GetBusinessID extracts the business ID from the Gin context
func GetBusinessID(c *gin.Context) *uuid.UUID {
	id := middleware.GetTenantID(c)
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// GetCashierRoles extracts the cashier roles from the Gin context
func GetCashierRoles(c *gin.Context) []string {
	roles, exists := c.Get(middleware.RolesKey)
	if !exists {
		return nil
	}
	list, _ := roles.([]string)
	return list
}

// actor writes a 401 and returns false when the request is not authenticated
func actor(c *gin.Context) (service.Actor, bool) {
	cashierID, businessID := GetCashierID(c), GetBusinessID(c)
	if cashierID == nil || businessID == nil {
		response.Error(c, apperror.ErrUnauthorized)
		return service.Actor{}, false
	}
	return service.Actor{BusinessID: *businessID, CashierID: *cashierID}, true
}

// uuidParam parses a path parameter, writing a 400 on failure
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// UseJSONFieldNames makes binding errors name fields by their json tag
func UseJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// bindJSON decodes the body into req. Rule violations get a 422 listing each
// field; a body that is not JSON gets a 400.
func bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		response.Error(c, apperror.ErrBadRequest.Wrap(err))
		return false
	}
	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{Field: fe.Field(), Message: ruleMessage(fe)})
	}
	response.ValidationError(c, fields)
	return false
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}
