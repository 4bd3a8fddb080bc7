package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bookpasal/bookpasal-backend/internal/api/handlers"
	"github.com/bookpasal/bookpasal-backend/internal/api/httpx"
	"github.com/bookpasal/bookpasal-backend/internal/api/validate"
	"github.com/bookpasal/bookpasal-backend/internal/config"
	"github.com/bookpasal/bookpasal-backend/internal/middleware"
	"github.com/bookpasal/bookpasal-backend/internal/models"
	"github.com/bookpasal/bookpasal-backend/internal/services"
)

func NewRouter(cfg config.Config, authMW *middleware.AuthMiddleware, ah *handlers.AuthHandler, ph *handlers.PaymentHandler, bs *services.BookService) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.RateLimit(cfg.RateRPS), middleware.HTTPMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- auth ----------
		r.Post("/auth/register", ah.Register)
		r.Post("/auth/login", ah.Login)

		// ---------- books ----------
		r.Get("/books", func(w http.ResponseWriter, r *http.Request) {
			limit, offset := 50, 0
			if v := r.URL.Query().Get("limit"); v != "" {
				if n, err := strconv.Atoi(v); err == nil && n > 0 { limit = n }
			}
			if v := r.URL.Query().Get("offset"); v != "" {
				if n, err := strconv.Atoi(v); err == nil && n >= 0 { offset = n }
			}
			books, err := bs.List(r.Context(), limit, offset)
			if err != nil { httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil); return }
			httpx.WriteJSON(w, http.StatusOK, books)
		})

		r.Get("/books/{id}", func(w http.ResponseWriter, r *http.Request) {
			b, err := bs.Get(r.Context(), chi.URLParam(r, "id"))
			if err != nil { httpx.WriteError(w, http.StatusNotFound, "book_not_found", "book not found", nil); return }
			httpx.WriteJSON(w, http.StatusOK, b)
		})

		r.With(authMW.Require, middleware.RequireRole("admin")).Post("/books", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Title       string `json:"title"`
				Description string `json:"description"`
				Price       int64  `json:"price"`
				Image       string `json:"image"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", "bad request", nil); return
			}
			var errs validate.Errs
			if e := validate.Required("title", req.Title); e != nil { errs = append(errs, *e) }
			if e := validate.MinInt("price", req.Price, 1); e != nil { errs = append(errs, *e) }
			if len(errs) > 0 {
				httpx.WriteError(w, http.StatusBadRequest, "validation_failed", errs.Error(), errs); return
			}
			b, err := bs.Create(r.Context(), models.Book{Title: req.Title, Description: req.Description, Price: req.Price, Image: req.Image})
			if err != nil { httpx.WriteError(w, http.StatusBadRequest, "bad_request", err.Error(), nil); return }
			httpx.WriteJSON(w, http.StatusCreated, b)
		})

		// ---------- payment ----------
		// Buy is open; the session is enforced where it matters, at the
		// COMPLETE callback gate.
		r.Get("/books/{id}/buy", ph.Buy)
		r.With(authMW.Optional).Get("/books/{id}/payment/callback", ph.Callback)

		// ---------- orders ----------
		r.With(authMW.Require).Get("/orders", ph.ListOrders)
	})

	return r
}
