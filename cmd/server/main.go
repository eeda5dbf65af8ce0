package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/GoldenRodger5/Quizium/internal/api"
	"github.com/GoldenRodger5/Quizium/internal/config"
	"github.com/GoldenRodger5/Quizium/internal/services"
	"github.com/GoldenRodger5/Quizium/internal/store"
)

func main() {
	cfg := config.Load()

	st, err := store.OpenSQLite(cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer st.Close()

	if purged, err := st.PurgeExpired(context.Background()); err != nil {
		log.Printf("purge expired entries: %v", err)
	} else if purged > 0 {
		log.Printf("purged %d expired entries", purged)
	}

	aiService := services.NewAIService(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIEndpoint)
	extractor := services.NewExtractor()
	generator := services.NewGenerator(aiService, cfg.MaxInputChars)
	evaluator := services.NewEvaluator(aiService, cfg.OverlapThreshold, cfg.SubstringFloor)
	hints := services.NewHints(aiService)
	review := services.NewReview(st)
	study := services.NewStudy(st, evaluator, hints, review, cfg.SessionTTL, cfg.DefaultQuestionCount)

	server := api.NewServer(study, generator, extractor, review, cfg.UploadDir)
	mux := http.NewServeMux()

	staticFS := http.FileServer(http.Dir("./static"))
	mux.Handle("/static/", http.StripPrefix("/static/", staticFS))
	mux.HandleFunc("/", serveFile("./static/index.html"))

	mux.Handle("/api", server.Handler())
	mux.Handle("/api/", server.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("listening on :%s", port)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}

func serveFile(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		http.ServeFile(w, r, path)
	}
}
