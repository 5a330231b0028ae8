package router

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"housemarket/internal/auth"
	"housemarket/internal/config"
	apperrors "housemarket/internal/errors"
	"housemarket/internal/handler"
	"housemarket/internal/metrics"
)

// Deps are the collaborators the routes need.
type Deps struct {
	Config         *config.Config
	Log            *zap.Logger
	Metrics        *metrics.Manager
	JWT            *auth.JWTService
	Tokens         auth.TokenStoreInterface
	AuthHandler    *handler.AuthHandler
	ListingHandler *handler.ListingHandler
	UserHandler    *handler.UserHandler
	// UploadDir is served under /uploads when images are stored locally.
	UploadDir string
}

// Register wires routes and middleware.
func Register(e *echo.Echo, d Deps) {
	e.Use(middleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(middleware.Recover())
	if d.Config.MaxUploadBytes > 0 {
		e.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
			Limit: bodyLimit(d.Config.MaxUploadBytes),
		}))
	}
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	e.Validator = NewValidator()

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if d.UploadDir != "" {
		e.Static("/uploads", d.UploadDir)
	}

	guard := auth.Guard(d.JWT, d.Tokens)
	api := e.Group("/api")

	api.POST("/auth/register", d.AuthHandler.Register)
	api.POST("/auth/login", d.AuthHandler.Login)
	api.POST("/auth/refresh", d.AuthHandler.Refresh)
	api.POST("/auth/logout", d.AuthHandler.Logout, guard)

	houses := api.Group("/houses")
	houses.GET("/get", d.ListingHandler.List)
	houses.GET("/filter", d.ListingHandler.Filter)
	houses.POST("/add", d.ListingHandler.Create, guard)
	houses.PUT("/edit/:id", d.ListingHandler.Edit, guard)
	houses.DELETE("/delete/:id", d.ListingHandler.Delete, guard)
	houses.GET("/:id", d.ListingHandler.Get)

	users := api.Group("/users")
	users.GET("/profile", d.UserHandler.MyProfile, guard)
	users.POST("/upload-profile-image", d.UserHandler.UploadProfileImage, guard)
	users.GET("/:userId/houses", d.UserHandler.UserListings)
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			switch {
			case v.Status >= http.StatusInternalServerError:
				log.Error("request", append(fields, zap.Error(v.Error))...)
			case v.Error != nil:
				log.Info("request", append(fields, zap.String("error", v.Error.Error()))...)
			default:
				log.Info("request", fields...)
			}
			return nil
		},
	})
}

// bodyLimit renders a byte count in the unit syntax BodyLimit expects.
func bodyLimit(n int64) string {
	return strconv.FormatInt(n, 10) + "B"
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator reports field errors under their JSON names.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Validation(err.Error())
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return apperrors.Validation("", fields...)
}
