package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/GoldenRodger5/Quizium/internal/models"
	"github.com/GoldenRodger5/Quizium/internal/services"
)

const maxMultipartMemory = 8 << 20 // 8 MB

type Server struct {
	mux       *http.ServeMux
	study     *services.Study
	generator *services.Generator
	extractor *services.Extractor
	review    *services.Review
	uploadDir string
}

func NewServer(
	study *services.Study,
	generator *services.Generator,
	extractor *services.Extractor,
	review *services.Review,
	uploadDir string,
) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		study:     study,
		generator: generator,
		extractor: extractor,
		review:    review,
		uploadDir: uploadDir,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/upload", s.handleUpload)
	s.mux.HandleFunc("/api/extract-url", s.handleExtractURL)
	s.mux.HandleFunc("/api/sessions", s.handleStartSession)
	s.mux.HandleFunc("/api/sessions/", s.handleSessionActions)
	s.mux.HandleFunc("/api/sets/", s.handleSetActions)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload accepts one PDF, TXT, or flashcard-JSON file and returns the
// id of the resulting flashcard set.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	if form := r.MultipartForm; form != nil {
		defer form.RemoveAll()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	var cards []models.Flashcard
	switch ext {
	case ".json":
		cards, err = importJSON(file)
	case ".pdf", ".txt", ".md":
		cards, err = s.generateFromFile(r, file, ext)
	default:
		writeError(w, http.StatusBadRequest, "invalid file type, upload a PDF, TXT, or JSON file")
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	setID, err := s.study.SaveSet(r.Context(), cards)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"set_id":          setID,
		"flashcard_count": len(cards),
		"message":         fmt.Sprintf("Successfully loaded %d flashcards", len(cards)),
	})
}

// generateFromFile spools the upload to disk, extracts its text, and runs
// the generation pipeline. The stored copy is transient.
func (s *Server) generateFromFile(r *http.Request, src multipart.File, ext string) ([]models.Flashcard, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure upload dir: %w", err)
	}

	storedPath := filepath.Join(s.uploadDir, uuid.NewString()+ext)
	out, err := os.Create(storedPath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer os.Remove(storedPath)

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return nil, fmt.Errorf("write file: %w", err)
	}
	out.Close()

	text, err := s.extractor.ExtractFile(storedPath)
	if err != nil {
		return nil, err
	}
	return s.generator.Generate(r.Context(), text)
}

func importJSON(src io.Reader) ([]models.Flashcard, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	set, err := models.ParseFlashcardSet(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", services.ErrExtractionFailed, err)
	}
	if len(set.Flashcards) == 0 {
		return nil, fmt.Errorf("%w: file contains no flashcards", services.ErrExtractionFailed)
	}
	return set.Flashcards, nil
}

func (s *Server) handleExtractURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.URL) == "" {
		writeError(w, http.StatusBadRequest, "invalid payload, expected {\"url\": ...}")
		return
	}

	text, err := s.extractor.ExtractURL(r.Context(), payload.URL)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	cards, err := s.generator.Generate(r.Context(), text)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	setID, err := s.study.SaveSet(r.Context(), cards)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"set_id":          setID,
		"flashcard_count": len(cards),
		"message":         fmt.Sprintf("Successfully loaded %d flashcards", len(cards)),
	})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload struct {
		SetID        string `json:"set_id"`
		NumQuestions int    `json:"num_questions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.SetID == "" {
		writeError(w, http.StatusBadRequest, "invalid payload, expected {\"set_id\": ...}")
		return
	}

	session, err := s.study.Start(r.Context(), payload.SetID, payload.NumQuestions)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"study_session_id": session.ID,
		"total_questions":  session.Total,
	})
}

func (s *Server) handleSessionActions(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	sessionID, action := parts[0], parts[1]

	switch action {
	case "question":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		s.handleGetQuestion(w, r, sessionID)
	case "answer":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		s.handleSubmitAnswer(w, r, sessionID)
	case "hint":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		s.handleGetHint(w, r, sessionID)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request, sessionID string) {
	view, done, err := s.study.CurrentQuestion(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if done != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"complete":        true,
			"final_score":     done.FinalScore,
			"total_questions": done.TotalQuestions,
			"percentage":      done.Percentage,
			"feedback":        done.Feedback,
		})
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request, sessionID string) {
	var payload struct {
		Answer string `json:"answer"`
		Skip   bool   `json:"skip"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	result, err := s.study.Submit(r.Context(), sessionID, payload.Answer, payload.Skip)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetHint(w http.ResponseWriter, r *http.Request, sessionID string) {
	hint, err := s.study.Hint(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"hint": hint})
}

func (s *Server) handleSetActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sets/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	setID, action := parts[0], parts[1]

	switch action {
	case "export":
		set, err := s.study.GetSet(r.Context(), setID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, set)
	case "review":
		due, err := s.review.DueCards(r.Context(), setID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"due": due, "count": len(due)})
	default:
		http.NotFound(w, r)
	}
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Evaluator and hint failures never reach here; their fallbacks absorb them.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidSource):
		writeError(w, http.StatusBadRequest, "invalid or empty flashcard set")
	case errors.Is(err, services.ErrInvalidSession):
		writeError(w, http.StatusBadRequest, "invalid study session")
	case errors.Is(err, services.ErrSessionComplete):
		writeError(w, http.StatusConflict, "study session already complete")
	case errors.Is(err, services.ErrGenerationFailed),
		errors.Is(err, services.ErrExtractionFailed):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
