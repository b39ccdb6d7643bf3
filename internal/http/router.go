package http

import (
	"net/http"

	"taskpilot/internal/ai"
	"taskpilot/internal/auth"
	"taskpilot/internal/config"
	"taskpilot/internal/http/handler"
	mw "taskpilot/internal/http/middleware"
	"taskpilot/internal/notify"
	"taskpilot/internal/reminder"
	"taskpilot/internal/task"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Deps carries everything the router wires into handlers. Built once in the
// composition root.
type Deps struct {
	Config    config.Config
	DB        *gorm.DB
	JWT       *auth.JWT
	Scheduler *reminder.Scheduler
	Email     *notify.SMTPSender
	WhatsApp  *notify.TwilioClient
	AI        *ai.Client
	Log       zerolog.Logger
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(d.Config.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(d.Config.CORSAllowedOrigins, d.Config.CORSAllowCredentials))
	}

	hh := &handler.HealthHandler{DB: d.DB, Scheduler: d.Scheduler}
	ah := &handler.AuthHandler{DB: d.DB, JWT: d.JWT}
	th := &handler.TaskHandler{
		Svc:       &task.Service{DB: d.DB},
		DB:        d.DB,
		Scheduler: d.Scheduler,
		Email:     d.Email,
		WhatsApp:  d.WhatsApp,
		Log:       d.Log.With().Str("comp", "tasks").Logger(),
	}
	aih := &handler.AIHandler{
		Client:   d.AI,
		Fallback: &ai.HeuristicParser{},
		Log:      d.Log.With().Str("comp", "ai").Logger(),
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", hh.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", ah.Signup)
			r.Post("/login", ah.Login)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth(d.JWT))
				r.Get("/profile", ah.Profile)
				r.Get("/verify", ah.Verify)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(auth.RequireAuth(d.JWT))

			r.Get("/", th.List)
			r.Post("/", th.Create)
			r.Get("/stats", th.Stats)

			r.Get("/{id}", th.Get)
			r.Put("/{id}", th.Update)
			r.Delete("/{id}", th.Delete)
		})

		r.Route("/ai", func(r chi.Router) {
			r.Use(auth.RequireAuth(d.JWT))
			r.Post("/parse-task", aih.ParseTask)
		})
	})

	return r
}
