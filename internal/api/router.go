package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/bodyshop/internal/api/handlers"
	"github.com/nikhilbhutani/bodyshop/internal/api/middleware"
	"github.com/nikhilbhutani/bodyshop/internal/audit"
	"github.com/nikhilbhutani/bodyshop/internal/auth"
	"github.com/nikhilbhutani/bodyshop/internal/cache"
	"github.com/nikhilbhutani/bodyshop/internal/config"
	"github.com/nikhilbhutani/bodyshop/internal/gallery"
	"github.com/nikhilbhutani/bodyshop/internal/invoice"
	"github.com/nikhilbhutani/bodyshop/internal/queue"
	"github.com/nikhilbhutani/bodyshop/internal/quoterequest"
	"github.com/nikhilbhutani/bodyshop/internal/storage"
	"github.com/nikhilbhutani/bodyshop/internal/store"
	"github.com/nikhilbhutani/bodyshop/internal/webhook"
)

const cachePrefix = "bodyshop:"

type Router struct {
	mux      *chi.Mux
	store    store.Store
	redis    *redis.Client
	queue    *queue.Client
	cfg      *config.Config
	notifier *webhook.Notifier
	limiter  *middleware.RateLimiter
}

// NewRouter builds the HTTP surface. rdb and qc may be nil when redis is
// unavailable; caching is then skipped and webhooks are sent in-process.
func NewRouter(st store.Store, rdb *redis.Client, qc *queue.Client, cfg *config.Config) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		store: st,
		redis: rdb,
		queue: qc,
		cfg:   cfg,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.AllowedOrigins))

	if rt.cfg.Server.RateLimit > 0 {
		rt.limiter = middleware.NewRateLimiter(rt.cfg.Server.RateLimit, rt.cfg.Server.RateLimit/2+1)
		r.Use(rt.limiter.Limit)
	}

	// Optional collaborators stay nil interfaces when absent.
	var (
		galleryCache gallery.Cache
		images       gallery.Images
		cleanupQueue gallery.CleanupQueue
		hookQueue    webhook.Enqueuer
		redisCheck   handlers.Pinger
	)
	if rt.redis != nil {
		c := cache.NewCache(rt.redis, cachePrefix)
		galleryCache = c
		redisCheck = c
	}
	if rt.queue != nil {
		cleanupQueue = rt.queue
		hookQueue = rt.queue
	}
	if rt.cfg.Storage.SupabaseURL != "" {
		images = storage.NewSupabaseStorage(rt.cfg.Storage.SupabaseURL, rt.cfg.Storage.SupabaseKey)
	}

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(map[string]handlers.Pinger{
		"store": rt.store,
		"redis": redisCheck,
	})
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// Initialize services
	issuer := auth.NewIssuer(rt.cfg.Auth.JWTSecret, rt.cfg.Auth.TokenTTL)
	authSvc := auth.NewService(rt.store, issuer)
	auditSvc := audit.NewService(rt.store)
	rt.notifier = webhook.NewNotifier(rt.cfg.Webhook, hookQueue)
	invoiceSvc := invoice.NewService(rt.store, rt.cfg.Numbering.MaxAttempts, auditSvc, rt.notifier)
	quoteSvc := quoterequest.NewService(rt.store, rt.notifier, auditSvc)
	gallerySvc := gallery.NewService(rt.store, galleryCache, images, rt.cfg.Storage.Bucket, cleanupQueue, auditSvc)

	authH := handlers.NewAuthHandler(authSvc)
	invoiceH := handlers.NewInvoiceHandler(invoiceSvc)
	quoteH := handlers.NewQuoteHandler(quoteSvc)
	galleryH := handlers.NewGalleryHandler(gallerySvc)
	adminH := handlers.NewAdminHandler(auditSvc)

	jwt := auth.NewMiddleware(issuer)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/admin/login", authH.Login)
		r.Post("/quotes", quoteH.Submit)
		r.Get("/gallery", galleryH.ListPublic)

		r.Group(func(r chi.Router) {
			r.Use(jwt.Authenticate)

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", invoiceH.List)
				r.Post("/", invoiceH.Create)
				r.Get("/{id}", invoiceH.Get)
				r.Put("/{id}", invoiceH.Update)
				r.Delete("/{id}", invoiceH.Delete)
				r.Post("/{id}/convert", invoiceH.Convert)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Get("/quotes", quoteH.List)
				r.Put("/quotes/{id}/status", quoteH.UpdateStatus)

				r.Get("/gallery", galleryH.ListAll)
				r.Post("/gallery", galleryH.Create)
				r.Put("/gallery/{id}", galleryH.Update)
				r.Delete("/gallery/{id}", galleryH.Delete)
				r.Post("/gallery/upload/{imageType}", galleryH.Upload)

				r.Get("/audit", adminH.AuditLogs)
			})
		})
	})

	return r
}

// Close flushes pending in-process webhook deliveries and stops background work.
func (rt *Router) Close() {
	if rt.notifier != nil {
		rt.notifier.Close()
	}
	if rt.limiter != nil {
		rt.limiter.Stop()
	}
}
