package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"knowledge-orchestrator/internal/domain"
	"knowledge-orchestrator/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AnswerService runs the retrieval pipeline end to end.
type AnswerService interface {
	Run(ctx context.Context, originalQuery string, queries []string, category domain.Category, source, userID string) (*usecase.AnswerResult, error)
	RunForFile(ctx context.Context, originalQuery string, queries []string, filename, userID string) (*usecase.AnswerResult, error)
}

// RouterService decides between a data request and a direct reply.
type RouterService interface {
	Route(ctx context.Context, query string) (domain.RouterDecision, string, error)
}

// TransformService selects and applies a query rewriting strategy.
type TransformService interface {
	Run(ctx context.Context, query string) (domain.TransformationKind, []string, error)
}

// IngestService covers the synchronous ingestion entry points; PDF and
// CSV ingestion go through the job queue instead.
type IngestService interface {
	IngestImage(ctx context.Context, imagesB64 []string, filename, userID string) error
	StoreDocuments(ctx context.Context, category domain.Category, docs []domain.Document) error
}

// CSVService answers questions over ingested CSV files.
type CSVService interface {
	Query(ctx context.Context, filename, question string) (string, error)
	ListFiles(ctx context.Context) ([]string, error)
}

type Handler struct {
	answer    AnswerService
	router    RouterService
	transform TransformService
	ingest    IngestService
	csv       CSVService
	jobRepo   domain.IngestJobRepository
	history   domain.HistoryStore
	ping      func(ctx context.Context) error
}

func NewHandler(
	answer AnswerService,
	router RouterService,
	transform TransformService,
	ingest IngestService,
	csv CSVService,
	jobRepo domain.IngestJobRepository,
	history domain.HistoryStore,
	ping func(ctx context.Context) error,
) *Handler {
	return &Handler{
		answer:    answer,
		router:    router,
		transform: transform,
		ingest:    ingest,
		csv:       csv,
		jobRepo:   jobRepo,
		history:   history,
		ping:      ping,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/files/pdf", h.EnqueuePDF)
	e.POST("/v1/files/csv", h.EnqueueCSV)
	e.POST("/v1/files/image", h.IngestImage)
	e.POST("/v1/store", h.StoreDocuments)
	e.POST("/v1/retrieve", h.Retrieve)
	e.POST("/v1/route", h.Route)
	e.POST("/v1/transform", h.Transform)
	e.POST("/v1/csv/query", h.CSVQuery)
	e.GET("/v1/csv/files", h.CSVFiles)
	e.GET("/v1/history", h.History)
	e.GET("/healthz", h.Healthz)
	e.GET("/readyz", h.Readyz)
}

type enqueueFileRequest struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	UserID   string `json:"user_id"`
}

// EnqueuePDF queues a PDF download for background ingestion.
// (POST /v1/files/pdf)
func (h *Handler) EnqueuePDF(ctx echo.Context) error {
	return h.enqueue(ctx, domain.JobKindPDF)
}

// EnqueueCSV queues a CSV download for background ingestion.
// (POST /v1/files/csv)
func (h *Handler) EnqueueCSV(ctx echo.Context) error {
	return h.enqueue(ctx, domain.JobKindCSV)
}

func (h *Handler) enqueue(ctx echo.Context, kind string) error {
	var req enqueueFileRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.URL == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing url"})
	}
	if req.Filename == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing filename"})
	}

	now := time.Now()
	job := &domain.IngestJob{
		ID:        uuid.New(),
		Kind:      kind,
		URL:       req.URL,
		Filename:  req.Filename,
		UserID:    req.UserID,
		Status:    domain.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.jobRepo.Enqueue(ctx.Request().Context(), job); err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusAccepted, map[string]string{"job_id": job.ID.String(), "status": "queued"})
}

type ingestImageRequest struct {
	Images   []string `json:"images"`
	Filename string   `json:"filename"`
	UserID   string   `json:"user_id"`
}

// IngestImage describes and stores base64 images synchronously.
// (POST /v1/files/image)
func (h *Handler) IngestImage(ctx echo.Context) error {
	var req ingestImageRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if len(req.Images) == 0 {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing images"})
	}
	if req.Filename == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing filename"})
	}

	if err := h.ingest.IngestImage(ctx.Request().Context(), req.Images, req.Filename, req.UserID); err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusOK, map[string]string{"filename": req.Filename, "status": "stored"})
}

type storeDocumentsRequest struct {
	Category  string `json:"category"`
	Documents []struct {
		Content string `json:"content"`
		Source  string `json:"source"`
		UserID  string `json:"user_id"`
		Page    int    `json:"page"`
		Image   bool   `json:"image"`
		Summary bool   `json:"summary"`
	} `json:"documents"`
}

// StoreDocuments embeds and stores raw documents into a collection.
// (POST /v1/store)
func (h *Handler) StoreDocuments(ctx echo.Context) error {
	var req storeDocumentsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if len(req.Documents) == 0 {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing documents"})
	}

	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	docs := make([]domain.Document, 0, len(req.Documents))
	for _, d := range req.Documents {
		docs = append(docs, domain.Document{
			Content: d.Content,
			Meta: domain.Metadata{
				Source:  d.Source,
				UserID:  d.UserID,
				Page:    d.Page,
				Image:   d.Image,
				Summary: d.Summary,
			},
		})
	}

	if err := h.ingest.StoreDocuments(ctx.Request().Context(), category, docs); err != nil {
		if errors.Is(err, domain.ErrMissingOwnership) {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusOK, map[string]interface{}{"stored": len(docs), "category": string(category)})
}

type retrieveRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id"`
}

type contextDocument struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Source  string `json:"source"`
	UserID  string `json:"user_id,omitempty"`
	Page    int    `json:"page,omitempty"`
	Image   bool   `json:"image,omitempty"`
	Summary bool   `json:"summary,omitempty"`
}

type contextPair struct {
	Query     string            `json:"query"`
	Documents []contextDocument `json:"documents"`
}

type retrieveResponse struct {
	Answer    string            `json:"answer"`
	Routed    string            `json:"routed"`
	Technique string            `json:"technique,omitempty"`
	Queries   []string          `json:"queries,omitempty"`
	Pairs     []contextPair     `json:"pairs,omitempty"`
	Documents []contextDocument `json:"documents,omitempty"`
}

func toContextDocuments(docs []domain.Document) []contextDocument {
	out := make([]contextDocument, 0, len(docs))
	for _, d := range docs {
		out = append(out, contextDocument{
			ID:      d.ID.String(),
			Content: d.Content,
			Source:  d.Meta.Source,
			UserID:  d.Meta.UserID,
			Page:    d.Meta.Page,
			Image:   d.Meta.Image,
			Summary: d.Meta.Summary,
		})
	}
	return out
}

// Retrieve runs the full pipeline: route the query, rewrite it, then
// retrieve and answer against the file's collection. Conversational
// queries are answered directly without touching the store.
// (POST /v1/retrieve)
func (h *Handler) Retrieve(ctx echo.Context) error {
	var req retrieveRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing query"})
	}

	reqCtx := ctx.Request().Context()

	decision, coreMeaning, err := h.router.Route(reqCtx, req.Query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	if !decision.NeedsData() {
		answer := decision.Conversational.Response
		h.appendExchange(reqCtx, req.Query, answer)
		return ctx.JSON(http.StatusOK, retrieveResponse{Answer: answer, Routed: "conversational"})
	}

	dr := decision.DataRequest

	if dr.Filetype == "csv" {
		answer, err := h.csv.Query(reqCtx, dr.Filename, dr.Query)
		if err != nil {
			if errors.Is(err, domain.ErrFileNotMapped) {
				return ctx.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
			}
			return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		h.appendExchange(reqCtx, req.Query, answer)
		return ctx.JSON(http.StatusOK, retrieveResponse{Answer: answer, Routed: "data_request"})
	}

	retrievalQuery := coreMeaning
	if retrievalQuery == "" {
		retrievalQuery = dr.Query
	}

	technique, queries, err := h.transform.Run(reqCtx, retrievalQuery)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	result, err := h.answer.RunForFile(reqCtx, dr.Query, queries, dr.Filename, req.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrFileNotMapped) {
			return ctx.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	h.appendExchange(reqCtx, req.Query, result.Answer)

	pairs := make([]contextPair, 0, len(result.Pairs))
	for _, pair := range result.Pairs {
		pairs = append(pairs, contextPair{
			Query:     pair.Query,
			Documents: toContextDocuments(pair.Documents),
		})
	}

	return ctx.JSON(http.StatusOK, retrieveResponse{
		Answer:    result.Answer,
		Routed:    "data_request",
		Technique: string(technique),
		Queries:   queries,
		Pairs:     pairs,
		Documents: toContextDocuments(result.Documents),
	})
}

func (h *Handler) appendExchange(ctx context.Context, query, answer string) {
	// Transcript failures must not fail the request.
	_ = h.history.Append(ctx,
		domain.ChatTurn{Role: domain.RoleUser, Content: query},
		domain.ChatTurn{Role: domain.RoleAssistant, Content: answer},
	)
}

type routeRequest struct {
	Query string `json:"query"`
}

type routeResponse struct {
	DataRequest    *domain.InternalDataRequest    `json:"data_request,omitempty"`
	Conversational *domain.ConversationalResponse `json:"conversational,omitempty"`
	CoreMeaning    string                         `json:"core_meaning,omitempty"`
}

// Route exposes the routing decision without running retrieval.
// (POST /v1/route)
func (h *Handler) Route(ctx echo.Context) error {
	var req routeRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing query"})
	}

	decision, coreMeaning, err := h.router.Route(ctx.Request().Context(), req.Query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusOK, routeResponse{
		DataRequest:    decision.DataRequest,
		Conversational: decision.Conversational,
		CoreMeaning:    coreMeaning,
	})
}

type transformRequest struct {
	Query string `json:"query"`
}

type transformResponse struct {
	Technique string   `json:"technique"`
	Queries   []string `json:"queries"`
}

// Transform selects and applies a query rewriting strategy.
// (POST /v1/transform)
func (h *Handler) Transform(ctx echo.Context) error {
	var req transformRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing query"})
	}

	technique, queries, err := h.transform.Run(ctx.Request().Context(), req.Query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusOK, transformResponse{Technique: string(technique), Queries: queries})
}

type csvQueryRequest struct {
	Filename string `json:"filename"`
	Question string `json:"question"`
}

// CSVQuery answers a question over an ingested CSV file.
// (POST /v1/csv/query)
func (h *Handler) CSVQuery(ctx echo.Context) error {
	var req csvQueryRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Filename == "" || req.Question == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing filename or question"})
	}

	answer, err := h.csv.Query(ctx.Request().Context(), req.Filename, req.Question)
	if err != nil {
		if errors.Is(err, domain.ErrFileNotMapped) {
			return ctx.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusOK, map[string]string{"answer": answer})
}

// CSVFiles lists the filenames available for tabular queries.
// (GET /v1/csv/files)
func (h *Handler) CSVFiles(ctx echo.Context) error {
	names, err := h.csv.ListFiles(ctx.Request().Context())
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if names == nil {
		names = []string{}
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{"files": names})
}

// History returns the conversation transcript in order.
// (GET /v1/history)
func (h *Handler) History(ctx echo.Context) error {
	turns, err := h.history.List(ctx.Request().Context())
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if turns == nil {
		turns = []domain.ChatTurn{}
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{"turns": turns})
}

// Healthz reports process liveness.
// (GET /healthz)
func (h *Handler) Healthz(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports readiness to serve, including database connectivity.
// (GET /readyz)
func (h *Handler) Readyz(ctx echo.Context) error {
	if h.ping != nil {
		if err := h.ping(ctx.Request().Context()); err != nil {
			return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		}
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
}
