package http

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/uniwork/uniwork-backend-go/internal/domain/user"
	"github.com/uniwork/uniwork-backend-go/internal/handler/http/middleware"
	"github.com/uniwork/uniwork-backend-go/internal/pkg/jwt"
)

func NewRouter(
	logger *slog.Logger,
	allowedOrigins []string,
	JWTService jwt.Service,
	statsHandler StatsHandler,
	attendanceHandler AttendanceHandler,
) *chi.Mux {
	r := chi.NewRouter()

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)
			r.Use(middleware.RequireCompany)

			r.Route("/stats", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionStatsViewOwn))

				r.Get("/me", statsHandler.GetMyStats)
				// Reading someone else's stats is checked per request by the service
				r.Get("/employees/{userId}", statsHandler.GetEmployeeStats)
			})

			r.Route("/attendances", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceCreate))
					r.Post("/clock-in", attendanceHandler.ClockIn)
					r.Post("/clock-out", attendanceHandler.ClockOut)
					r.Post("/breaks/start", attendanceHandler.StartBreak)
					r.Post("/breaks/end", attendanceHandler.EndBreak)
				})

				r.With(middleware.RequirePermission(user.PermissionAttendanceViewOwn)).
					Get("/me", attendanceHandler.GetMyAttendance)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceApprove))
					r.Post("/{id}/approve", attendanceHandler.Approve)
					r.Post("/{id}/unapprove", attendanceHandler.Unapprove)
				})
			})
		})
	})
	return r
}
