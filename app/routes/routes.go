package routes

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"inkwell/app/controllers"
	"inkwell/app/images"
	"inkwell/app/middleware"
	"inkwell/app/services"
)

// Auth configures basic auth for mutating routes. A zero value disables it.
type Auth struct {
	User         string
	PasswordHash string
}

func (a Auth) enabled() bool {
	return a.User != "" && a.PasswordHash != ""
}

// Setup wires every route onto a router.
func Setup(svc *services.PostService, imgs *images.Service, auth Auth, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	postController := controllers.NewPostController(svc, log)
	imageController := controllers.NewImageController(imgs, log)

	router := mux.NewRouter()
	router.Use(middleware.Recoverer(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.ContentTypeJSON)

	router.HandleFunc("/readyz", postController.Readyz).Methods("GET")

	// Public reads.
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/posts", postController.Index).Methods("GET")
	api.HandleFunc("/posts/{slug}", postController.Show).Methods("GET")
	api.HandleFunc("/labels/{label}", postController.ByLabel).Methods("GET")
	api.HandleFunc("/images", imageController.Index).Methods("GET")
	router.HandleFunc("/images/{id}/{variant}", imageController.Show).Methods("GET")

	// Editor writes, behind auth when configured.
	edit := router.PathPrefix("/api").Subrouter()
	if auth.enabled() {
		edit.Use(middleware.BasicAuth(auth.User, auth.PasswordHash))
	}
	edit.HandleFunc("/posts/{slug}", postController.Save).Methods("PUT")
	edit.HandleFunc("/posts/{slug}/check", postController.Check).Methods("POST")
	edit.HandleFunc("/posts/{slug}", postController.Delete).Methods("DELETE")
	edit.HandleFunc("/posts/{slug}/publish", postController.Publish).Methods("POST")
	edit.HandleFunc("/posts/{slug}/unpublish", postController.Unpublish).Methods("POST")
	edit.HandleFunc("/images", imageController.Create).Methods("POST")
	edit.HandleFunc("/images/{id}", imageController.Delete).Methods("DELETE")

	return router
}
