package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"inkwell/app/models"
	"inkwell/app/repositories"
	"inkwell/app/services"
)

// PostController handles HTTP requests for blog posts
type PostController struct {
	service *services.PostService
	log     *slog.Logger
}

// NewPostController creates a new PostController
func NewPostController(service *services.PostService, log *slog.Logger) *PostController {
	if log == nil {
		log = slog.Default()
	}
	return &PostController{service: service, log: log}
}

type listResponse struct {
	Posts    []models.PostSummary   `json:"posts"`
	Warnings []repositories.Warning `json:"warnings,omitempty"`
}

// Index lists every post, newest first.
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	posts, warnings, err := pc.service.ListPosts(r.Context())
	if err != nil {
		writeError(w, pc.log, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Posts: posts, Warnings: warnings})
}

type postResponse struct {
	Post *models.Post `json:"post"`
	HTML string       `json:"html"`
}

// Show returns one post with its rendered HTML.
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	post, html, err := pc.service.GetPost(r.Context(), slug)
	if err != nil {
		writeError(w, pc.log, err)
		return
	}
	writeJSON(w, http.StatusOK, postResponse{Post: post, HTML: html})
}

func (pc *PostController) decodePost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	var post models.Post
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return nil, false
	}
	// The slug in the path wins over whatever the body says.
	post.Slug = mux.Vars(r)["slug"]
	return &post, true
}

// Save creates or replaces a post.
func (pc *PostController) Save(w http.ResponseWriter, r *http.Request) {
	post, ok := pc.decodePost(w, r)
	if !ok {
		return
	}
	result, err := pc.service.SavePost(r.Context(), post, false)
	if err != nil {
		writeError(w, pc.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Check runs the save validations, including link integrity, without
// writing anything. Broken links fail the request here.
func (pc *PostController) Check(w http.ResponseWriter, r *http.Request) {
	post, ok := pc.decodePost(w, r)
	if !ok {
		return
	}
	result, err := pc.service.SavePost(r.Context(), post, true)
	if err != nil {
		writeError(w, pc.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Delete removes a post and its label markers.
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := pc.service.DeletePost(r.Context(), mux.Vars(r)["slug"]); err != nil {
		writeError(w, pc.log, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// Publish marks a post published.
func (pc *PostController) Publish(w http.ResponseWriter, r *http.Request) {
	if err := pc.service.Publish(r.Context(), mux.Vars(r)["slug"]); err != nil {
		writeError(w, pc.log, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// Unpublish clears the published flag.
func (pc *PostController) Unpublish(w http.ResponseWriter, r *http.Request) {
	if err := pc.service.Unpublish(r.Context(), mux.Vars(r)["slug"]); err != nil {
		writeError(w, pc.log, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// ByLabel lists the slugs carrying a label.
func (pc *PostController) ByLabel(w http.ResponseWriter, r *http.Request) {
	slugs, err := pc.service.ListByLabel(r.Context(), mux.Vars(r)["label"])
	if err != nil {
		writeError(w, pc.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"slugs": slugs})
}

// Readyz checks store read access.
func (pc *PostController) Readyz(w http.ResponseWriter, r *http.Request) {
	if err := pc.service.Ready(r.Context()); err != nil {
		writeError(w, pc.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
