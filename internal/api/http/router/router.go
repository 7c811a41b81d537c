package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/postpilot/postpilot-server/internal/api/http/handler"
	"github.com/postpilot/postpilot-server/internal/api/http/middleware"
	"github.com/postpilot/postpilot-server/internal/logger"
	"github.com/postpilot/postpilot-server/internal/model"
)

// Router wires handlers and middleware into the HTTP route tree.
type Router struct {
	postService    handler.PostService
	mediaService   handler.MediaService
	validator      middleware.Validator
	contextManager model.ContextManager
	logger         *logger.Logger
}

// New creates a new Router instance.
func New(
	postService handler.PostService,
	mediaService handler.MediaService,
	validator middleware.Validator,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		postService:    postService,
		mediaService:   mediaService,
		validator:      validator,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Register builds the route tree. Every /api route sits behind the signed
// header check; there are no anonymous endpoints.
func (r *Router) Register() http.Handler {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.validator, r.contextManager, r.logger)

	postHandler := handler.NewPost(r.postService, r.contextManager, r.logger)
	mediaHandler := handler.NewMedia(r.mediaService, r.contextManager, r.logger)
	meHandler := handler.NewMe(r.contextManager, r.logger)

	mux := chi.NewRouter()
	mux.Use(logging.Handle)

	mux.Route("/api", func(api chi.Router) {
		api.Use(authenticate.Handle)

		api.Get("/me", meHandler.Get)

		api.Route("/posts", func(posts chi.Router) {
			posts.Get("/", postHandler.List)
			posts.Post("/", postHandler.Create)
			posts.Get("/{id}", postHandler.Get)
			posts.Put("/{id}", postHandler.Update)
			posts.Delete("/{id}", postHandler.Delete)
		})

		api.Post("/media", mediaHandler.Upload)
		api.Get("/media/{hash}", mediaHandler.Download)
	})

	return mux
}
