package httpserver

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appdiag "github.com/bryanwahyu/cropscan/internal/application/diagnosis"
	domain "github.com/bryanwahyu/cropscan/internal/domain/diagnosis"
	"github.com/bryanwahyu/cropscan/internal/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

// Deps carries everything the router needs; there is no package state.
type Deps struct {
	Service        *appdiag.Service
	Flash          *middleware.Flash
	MaxUploadBytes int64

	// UploadDir enables the /uploads static route for the local storage
	// driver. Leave empty with the minio driver, where image URLs point
	// at the bucket.
	UploadDir string

	Health map[string]middleware.HealthChecker
}

type Router struct {
	svc       *appdiag.Service
	flash     *middleware.Flash
	tmpl      *template.Template
	maxUpload int64
}

// viewData is what every page template receives.
type viewData struct {
	Title   string
	Flashes []middleware.FlashMessage
	Result  *domain.Result
}

// NewRouter parses the embedded templates and builds the full HTTP surface.
func NewRouter(deps Deps) (http.Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	r := &Router{
		svc:       deps.Service,
		flash:     deps.Flash,
		tmpl:      tmpl,
		maxUpload: deps.MaxUploadBytes,
	}

	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	mux.Get("/", r.handleIndex)
	mux.Get("/about", r.handleAbout)
	mux.Get("/upload", r.handleUploadForm)
	mux.With(middleware.RateLimitMiddleware(10, 2)).Post("/upload", r.handleUpload)

	mux.Get("/health", middleware.HealthHandler(deps.Health))
	mux.Get("/metrics", middleware.MetricsHandler)

	if deps.UploadDir != "" {
		files := http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.UploadDir)))
		mux.Get("/uploads/*", files.ServeHTTP)
	}

	mux.NotFound(r.handleNotFound)
	mux.MethodNotAllowed(r.handleNotFound)

	return mux, nil
}

func (r *Router) handleIndex(w http.ResponseWriter, req *http.Request) {
	r.render(w, http.StatusOK, "index.html", viewData{
		Title:   "Crop Disease Detection",
		Flashes: r.flash.Pop(w, req),
	})
}

func (r *Router) handleAbout(w http.ResponseWriter, req *http.Request) {
	r.render(w, http.StatusOK, "about.html", viewData{
		Title: "About",
	})
}

func (r *Router) handleUploadForm(w http.ResponseWriter, req *http.Request) {
	r.render(w, http.StatusOK, "upload.html", viewData{
		Title:   "Upload Leaf Image",
		Flashes: r.flash.Pop(w, req),
	})
}

// handleUpload runs the full pipeline: validate the multipart upload,
// buffer it to a temp file, store + diagnose, render the result. Every
// expected failure becomes a flash message and a redirect back to the form.
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)

	if err := req.ParseMultipartForm(r.maxUpload); err != nil {
		if isTooLarge(err) {
			r.redirectWithError(w, req, fmt.Sprintf("File too large. Maximum size is %dMB.", r.maxUpload>>20))
			return
		}
		r.redirectWithError(w, req, "Please select a file first")
		return
	}

	file, header, err := req.FormFile("file")
	if err != nil {
		r.redirectWithError(w, req, "Please select a file first")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		r.redirectWithError(w, req, "Please select a file")
		return
	}
	if !domain.AllowedFile(header.Filename) {
		r.redirectWithError(w, req, "Invalid file type. Please use PNG, JPG, JPEG, GIF or BMP images.")
		return
	}

	tmp, err := os.CreateTemp("", "cropscan-upload-*")
	if err != nil {
		log.Printf("buffer upload: %v", err)
		r.redirectWithError(w, req, "Error processing file. Please try again.")
		return
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, file)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Printf("buffer upload: %v", err)
		r.redirectWithError(w, req, "Error processing file. Please try again.")
		return
	}

	middleware.IncrementUploads()

	result, err := r.svc.Diagnose(req.Context(), appdiag.UploadCommand{
		TempPath:     tmp.Name(),
		OriginalName: header.Filename,
		Size:         size,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyFilename), errors.Is(err, domain.ErrInvalidFilename):
			r.redirectWithError(w, req, "Please select a file")
		case errors.Is(err, domain.ErrUnsupportedType):
			r.redirectWithError(w, req, "Invalid file type. Please use PNG, JPG, JPEG, GIF or BMP images.")
		case errors.Is(err, domain.ErrAnalysis):
			r.redirectWithError(w, req, "Analysis failed. Please try another image.")
		default:
			log.Printf("diagnose %s: %v", header.Filename, err)
			r.redirectWithError(w, req, "Error processing file. Please try again.")
		}
		return
	}

	middleware.IncrementPredictions()
	r.render(w, http.StatusOK, "result.html", viewData{
		Title: "Analysis Result",
		Flashes: []middleware.FlashMessage{
			{Kind: "success", Text: "Analysis completed successfully!"},
		},
		Result: result,
	})
}

func (r *Router) handleNotFound(w http.ResponseWriter, req *http.Request) {
	r.render(w, http.StatusNotFound, "404.html", viewData{
		Title: "Page Not Found",
	})
}

func (r *Router) redirectWithError(w http.ResponseWriter, req *http.Request, msg string) {
	r.flash.Set(w, "error", msg)
	http.Redirect(w, req, "/upload", http.StatusSeeOther)
}

func (r *Router) render(w http.ResponseWriter, status int, name string, data viewData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := r.tmpl.ExecuteTemplate(w, name, data); err != nil {
		// headers already sent, nothing left to do but log
		log.Printf("render %s: %v", name, err)
	}
}

// isTooLarge detects the MaxBytesReader limit. The typed error covers the
// direct read path; the string match covers errors rewrapped by the
// multipart reader.
func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
