package di

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jackc/pgx/v5/pgxpool"

	"knowledge-orchestrator/internal/adapter/filestate"
	"knowledge-orchestrator/internal/adapter/httpapi"
	"knowledge-orchestrator/internal/adapter/inference"
	"knowledge-orchestrator/internal/adapter/repository"
	"knowledge-orchestrator/internal/domain"
	"knowledge-orchestrator/internal/infra/config"
	"knowledge-orchestrator/internal/infra/httpclient"
	"knowledge-orchestrator/internal/usecase"
	"knowledge-orchestrator/internal/worker"
)

// Inference calls are slow; each backend gets its own pooled client so
// a stuck generation cannot starve embedding or rerank traffic.
const (
	generationTimeout = 120 * time.Second
	embeddingTimeout  = 60 * time.Second
	rerankTimeout     = 30 * time.Second
	downloadTimeout   = 60 * time.Second
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	// Repositories
	DocStore domain.DocumentStore
	JobRepo  domain.IngestJobRepository
	CSVRepo  domain.CSVRepository

	// State stores
	History domain.HistoryStore
	FileMap domain.FileMapStore

	// Usecases
	AnswerUsecase    *usecase.AnswerUsecase
	RouterUsecase    *usecase.RouterUsecase
	TransformUsecase *usecase.TransformUsecase
	IngestUsecase    *usecase.IngestUsecase
	CSVUsecase       *usecase.CSVUsecase

	// Worker and HTTP surface
	Worker  *worker.JobWorker
	Handler *httpapi.Handler
}

// NewApplicationComponents wires all dependencies from config and database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) (*ApplicationComponents, error) {
	// Repositories
	docStore := repository.NewDocumentRepository(pool)
	jobRepo := repository.NewIngestJobRepository(pool)
	csvRepo := repository.NewCSVRepository(pool)
	txManager := repository.NewPostgresTransactionManager(pool)

	// File-backed state
	history, err := filestate.NewHistoryStore(cfg.State.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	fileMap, err := filestate.NewFileMapStore(cfg.State.FileMapPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file map store: %w", err)
	}

	// Shared HTTP clients with connection pooling
	generateHTTP := httpclient.NewPooledClient(generationTimeout)
	embedHTTP := httpclient.NewPooledClient(embeddingTimeout)
	rerankHTTP := httpclient.NewPooledClient(rerankTimeout)
	downloadHTTP := httpclient.NewPooledClient(downloadTimeout)

	// Inference clients
	embedder := inference.NewOllamaEmbedder(cfg.Augur.URL, cfg.Augur.EmbeddingModel, embedHTTP)
	generator := inference.NewOllamaGenerator(cfg.Augur.URL, cfg.Augur.Model, generateHTTP)
	structured := inference.NewStructuredGenerator(cfg.Augur.URL, cfg.Augur.Model, generateHTTP)
	describer := inference.NewVisionDescriber(cfg.Augur.URL, cfg.Augur.VisionModel, generateHTTP)
	reranker := inference.NewRerankerClient(cfg.Augur.RerankerURL, cfg.Augur.RerankerModel, rerankTimeout, log, rerankHTTP)

	// Domain services
	chunker := domain.NewChunker()

	promptBuilder, err := usecase.NewAnswerPromptBuilder(cfg.RAG.MaxPromptTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt builder: %w", err)
	}

	answerCache := expirable.NewLRU[string, usecase.AnswerResult](
		cfg.Cache.Size, nil, time.Duration(cfg.Cache.TTL)*time.Minute,
	)

	// Usecases
	answerUsecase := usecase.NewAnswerUsecase(
		embedder, docStore, reranker, generator, fileMap,
		promptBuilder, answerCache, log,
		cfg.RAG.TopK, cfg.RAG.TopN, cfg.RAG.MaxTokens,
	)
	routerUsecase := usecase.NewRouterUsecase(structured, history, log)
	transformUsecase := usecase.NewTransformUsecase(structured, routerUsecase, log)
	ingestUsecase := usecase.NewIngestUsecase(
		downloadHTTP, describer, generator, structured, embedder,
		docStore, txManager, chunker, fileMap, history, log,
	)
	csvUsecase := usecase.NewCSVUsecase(downloadHTTP, csvRepo, generator, history, log)

	// Worker
	jobWorker := worker.NewJobWorker(jobRepo, ingestUsecase, csvUsecase, cfg.Worker.JobsPerMinute, log)
	jobWorker.SetPollInterval(time.Duration(cfg.Worker.PollIntervalSeconds) * time.Second)

	// HTTP surface
	handler := httpapi.NewHandler(
		answerUsecase, routerUsecase, transformUsecase,
		ingestUsecase, csvUsecase, jobRepo, history, pool.Ping,
	)

	return &ApplicationComponents{
		DocStore:         docStore,
		JobRepo:          jobRepo,
		CSVRepo:          csvRepo,
		History:          history,
		FileMap:          fileMap,
		AnswerUsecase:    answerUsecase,
		RouterUsecase:    routerUsecase,
		TransformUsecase: transformUsecase,
		IngestUsecase:    ingestUsecase,
		CSVUsecase:       csvUsecase,
		Worker:           jobWorker,
		Handler:          handler,
	}, nil
}
