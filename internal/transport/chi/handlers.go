package chi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/calyptra/docqa/internal/domain"
	"github.com/calyptra/docqa/internal/usecase/ingest"
)

// --- DTOs ---

type ingestRequest struct {
	Path       string `json:"path"`
	Collection string `json:"collection"`
}

type fileResultDTO struct {
	Path   string `json:"path"`
	Pages  int    `json:"pages"`
	Chunks int    `json:"chunks"`
	Error  string `json:"error,omitempty"`
}

type statsDTO struct {
	TotalPages        int `json:"total_pages"`
	TotalChunks       int `json:"total_chunks"`
	TotalWords        int `json:"total_words"`
	TotalTokens       int `json:"total_tokens"`
	PagesWithText     int `json:"pages_with_text"`
	PagesWithImages   int `json:"pages_with_images"`
	TotalImages       int `json:"total_images"`
	DocumentsIngested int `json:"documents_ingested"`
}

type ingestResponse struct {
	Collection  string          `json:"collection"`
	Files       []fileResultDTO `json:"files"`
	Stats       statsDTO        `json:"stats"`
	DurationSec float64         `json:"duration_sec"`
}

type questionRequest struct {
	Question      string `json:"question"`
	Collection    string `json:"collection"`
	TopK          int    `json:"top_k"`
	IncludeImages bool   `json:"include_images"`
}

type contextItemDTO struct {
	ContentType  string  `json:"content_type"`
	Text         string  `json:"text"`
	DocName      string  `json:"doc_name"`
	PageNum      int     `json:"page_num"`
	ChunkIndex   int     `json:"chunk_index"`
	Score        float64 `json:"relevance_score"`
	WordCount    int     `json:"word_count"`
	HasImages    bool    `json:"has_images"`
	PageImageB64 string  `json:"page_image_b64,omitempty"`
}

type contextResponse struct {
	Question string           `json:"question"`
	Context  []contextItemDTO `json:"context"`
	Count    int              `json:"count"`
}

type timingDTO struct {
	RetrievalSec float64 `json:"retrieval_sec"`
	SynthesisSec float64 `json:"synthesis_sec"`
	TotalSec     float64 `json:"total_sec"`
}

type queryResponse struct {
	Question    string           `json:"question"`
	Answer      string           `json:"answer"`
	Sources     []domain.Source  `json:"sources"`
	Context     []contextItemDTO `json:"context"`
	TotalTokens int              `json:"total_tokens"`
	Timing      timingDTO        `json:"timing"`
}

type collectionDTO struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type imageResponse struct {
	Collection  string `json:"collection"`
	ID          string `json:"id"`
	ContentType string `json:"content_type"`
	DataB64     string `json:"data_b64"`
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(s.checks))
	healthy := true

	for name, check := range s.checks {
		ctx, cancel := dependencyCheckContext(r)
		err := check(ctx)
		cancel()
		if err != nil {
			checks[name] = "failed"
			healthy = false
			s.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			continue
		}
		checks[name] = "ok"
	}

	status, httpStatus := "healthy", http.StatusOK
	if !healthy {
		status, httpStatus = "degraded", http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": status,
		"checks": checks,
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.info)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	names, err := s.collections.ListCollections(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	collections := make([]collectionDTO, 0, len(names))
	for _, name := range names {
		count, err := s.collections.Count(r.Context(), name)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		collections = append(collections, collectionDTO{Name: name, Count: count})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"usage":       s.usage.Snapshot(),
		"collections": collections,
	})
}

func (s *Server) handleStatsReset(w http.ResponseWriter, _ *http.Request) {
	s.usage.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "path is required")
		return
	}
	collection := req.Collection
	if collection == "" {
		collection = s.info.DefaultCollection
	}

	fi, err := os.Stat(req.Path)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "path not accessible: "+err.Error())
		return
	}

	var result ingest.Result
	if fi.IsDir() {
		result, err = s.ingest.IngestFolder(r.Context(), req.Path, collection)
	} else {
		result, err = s.ingest.IngestFile(r.Context(), req.Path, collection)
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ingestResponseFrom(result))
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQuestion(w, r)
	if !ok {
		return
	}

	items, err := s.ask.Context(r.Context(), req.Collection, req.Question, req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, contextResponse{
		Question: req.Question,
		Context:  s.contextDTOs(items, req.Collection, req.IncludeImages),
		Count:    len(items),
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQuestion(w, r)
	if !ok {
		return
	}

	answer, err := s.ask.Ask(r.Context(), req.Collection, req.Question, req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Question:    req.Question,
		Answer:      answer.Text,
		Sources:     answer.Sources,
		Context:     s.contextDTOs(answer.Context, req.Collection, req.IncludeImages),
		TotalTokens: answer.TotalTokens,
		Timing: timingDTO{
			RetrievalSec: answer.Timing.Retrieval.Seconds(),
			SynthesisSec: answer.Timing.Synthesis.Seconds(),
			TotalSec:     answer.Timing.Total.Seconds(),
		},
	})
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	names, err := s.collections.ListCollections(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	collections := make([]collectionDTO, 0, len(names))
	for _, name := range names {
		count, err := s.collections.Count(r.Context(), name)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		collections = append(collections, collectionDTO{Name: name, Count: count})
	}

	writeJSON(w, http.StatusOK, map[string]any{"collections": collections})
}

func (s *Server) handleCollectionStats(w http.ResponseWriter, r *http.Request) {
	name := chirouter.URLParam(r, "name")
	count, err := s.collections.Count(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, collectionDTO{Name: name, Count: count})
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	name := chirouter.URLParam(r, "name")
	if err := s.collections.DeleteCollection(r.Context(), name); err != nil {
		s.handleDomainError(w, err)
		return
	}
	if s.images != nil {
		s.images.DropCollection(name)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	if s.images == nil {
		writeError(w, http.StatusNotFound, "not_found", "image retention is disabled")
		return
	}

	collection := chirouter.URLParam(r, "name")
	id := chirouter.URLParam(r, "id")

	png, ok := s.images.Get(collection, id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "no retained image for id")
		return
	}

	// PNG bytes cross the JSON boundary base64-encoded.
	writeJSON(w, http.StatusOK, imageResponse{
		Collection:  collection,
		ID:          id,
		ContentType: "image/png",
		DataB64:     base64.StdEncoding.EncodeToString(png),
	})
}

// --- Helpers ---

func (s *Server) decodeQuestion(w http.ResponseWriter, r *http.Request) (questionRequest, bool) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return questionRequest{}, false
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "question is required")
		return questionRequest{}, false
	}
	if req.Collection == "" {
		req.Collection = s.info.DefaultCollection
	}
	if req.TopK <= 0 {
		req.TopK = s.info.DefaultTopK
	}
	return req, true
}

// contextDTOs converts context items, attaching retained page rasters as
// base64 when requested.
func (s *Server) contextDTOs(items []domain.ContextItem, collection string, includeImages bool) []contextItemDTO {
	out := make([]contextItemDTO, 0, len(items))
	for _, item := range items {
		dto := contextItemDTO{
			ContentType: string(item.ContentType),
			Text:        item.Text,
			DocName:     item.DocName,
			PageNum:     item.PageNum,
			ChunkIndex:  item.ChunkIndex,
			Score:       item.Score,
			WordCount:   item.WordCount,
			HasImages:   item.HasImages,
		}
		if includeImages && item.ContentType == domain.ContentTypePageImage && s.images != nil {
			if png, ok := s.images.Get(collection, domain.PageImageID(item.DocName, item.PageNum)); ok {
				dto.PageImageB64 = base64.StdEncoding.EncodeToString(png)
			}
		}
		out = append(out, dto)
	}
	return out
}

func ingestResponseFrom(result ingest.Result) ingestResponse {
	files := make([]fileResultDTO, 0, len(result.Files))
	for _, f := range result.Files {
		dto := fileResultDTO{Path: f.Path, Pages: f.Pages, Chunks: f.Chunks}
		if f.Err != nil {
			dto.Error = f.Err.Error()
		}
		files = append(files, dto)
	}
	return ingestResponse{
		Collection: result.Collection,
		Files:      files,
		Stats: statsDTO{
			TotalPages:        result.Stats.TotalPages,
			TotalChunks:       result.Stats.TotalChunks,
			TotalWords:        result.Stats.TotalWords,
			TotalTokens:       result.Stats.TotalTokens,
			PagesWithText:     result.Stats.PagesWithText,
			PagesWithImages:   result.Stats.PagesWithImages,
			TotalImages:       result.Stats.TotalImages,
			DocumentsIngested: result.Stats.DocumentsIngested,
		},
		DurationSec: result.Duration.Seconds(),
	}
}

// dependencyCheckContext bounds one health probe.
func dependencyCheckContext(r *http.Request) (ctx context.Context, cancel context.CancelFunc) {
	return context.WithTimeout(r.Context(), 2*time.Second)
}
