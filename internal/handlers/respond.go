package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	apierrors "github.com/yukikurage/org-membership-api/internal/errors"
	"github.com/yukikurage/org-membership-api/internal/middleware"
	"github.com/yukikurage/org-membership-api/internal/services"
)

func init() {
	// report binding failures under their JSON names
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
	}
}

// respondServiceError maps a service outcome onto the API error envelope.
// Unexpected faults are logged and never echoed to the client.
func respondServiceError(c *gin.Context, err error) {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		switch svcErr.Kind {
		case services.KindValidation:
			details := svcErr.Fields
			if len(details) == 0 && svcErr.Field != "" {
				details = map[string][]string{svcErr.Field: {svcErr.Message}}
			}
			apierrors.BadRequestWithDetails(c, svcErr.Message, details)
		case services.KindPermissionDenied:
			log.Printf("Permission denied: %s %s: %s", c.Request.Method, c.Request.URL.Path, svcErr.Message)
			apierrors.Forbidden(c, svcErr.Message)
		case services.KindNotFound:
			apierrors.NotFound(c, svcErr.Message)
		case services.KindConflict:
			apierrors.Conflict(c, svcErr.Field, svcErr.Message)
		default:
			log.Printf("Unknown error kind %q: %v", svcErr.Kind, err)
			apierrors.InternalError(c, "")
		}
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		log.Printf("Request timed out: %s %s", c.Request.Method, c.Request.URL.Path)
		apierrors.ServiceUnavailable(c, "")
		return
	}

	log.Printf("Unexpected error: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	apierrors.InternalError(c, "")
}

// respondBindingError turns request binding failures into field-level 400s.
func respondBindingError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	details := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = append(details[fe.Field()], bindingMessage(fe))
	}
	apierrors.BadRequestWithDetails(c, "Invalid request body", details)
}

func bindingMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "uuid":
		return "must be a valid ID"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed the %s rule", fe.Tag())
	}
}

// requireActor returns the authenticated actor or answers 401.
func requireActor(c *gin.Context) (services.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
	}
	return actor, ok
}

// uuidParam parses a path parameter or answers 400.
func uuidParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		apierrors.BadRequest(c, fmt.Sprintf("Invalid %s ID", label))
		return uuid.Nil, false
	}
	return id, true
}
