package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"knowledge-orchestrator/internal/domain"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"
)

// pageSummaryConcurrency bounds parallel summary calls so a large PDF
// does not saturate the model server.
const pageSummaryConcurrency = 4

var categorySchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"category": map[string]interface{}{
			"type": "string",
			"enum": []string{"Education", "Sports", "Politics", "Environment", "Others"},
		},
	},
	"required": []string{"category"},
}

// IngestUsecase turns uploaded files into embedded documents in the
// category collections.
type IngestUsecase struct {
	httpClient *http.Client
	describer  domain.ImageDescriber
	llm        domain.LLMClient
	structured domain.StructuredClient
	encoder    domain.VectorEncoder
	store      domain.DocumentStore
	tx         domain.TransactionManager
	chunker    domain.Chunker
	fileMap    domain.FileMapStore
	history    domain.HistoryStore
	logger     *slog.Logger
}

func NewIngestUsecase(
	httpClient *http.Client,
	describer domain.ImageDescriber,
	llm domain.LLMClient,
	structured domain.StructuredClient,
	encoder domain.VectorEncoder,
	store domain.DocumentStore,
	tx domain.TransactionManager,
	chunker domain.Chunker,
	fileMap domain.FileMapStore,
	history domain.HistoryStore,
	logger *slog.Logger,
) *IngestUsecase {
	return &IngestUsecase{
		httpClient: httpClient,
		describer:  describer,
		llm:        llm,
		structured: structured,
		encoder:    encoder,
		store:      store,
		tx:         tx,
		chunker:    chunker,
		fileMap:    fileMap,
		history:    history,
		logger:     logger,
	}
}

// IngestPDF downloads the file, extracts per-page text, summarizes
// pages concurrently, rolls the page summaries into one file summary,
// classifies it, and stores the chunked and embedded pages plus the
// summary document into the chosen collection.
func (u *IngestUsecase) IngestPDF(ctx context.Context, url, filename, userID string) error {
	start := time.Now()

	data, err := u.download(ctx, url)
	if err != nil {
		return err
	}

	pages, err := extractPages(data)
	if err != nil {
		return fmt.Errorf("failed to extract pdf text: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("pdf %q has no extractable text", filename)
	}

	pageSummaries := make([]string, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pageSummaryConcurrency)
	for i, text := range pages {
		i, text := i, text
		g.Go(func() error {
			summary, err := u.Summarize(gctx, text)
			if err != nil {
				return fmt.Errorf("failed to summarize page %d: %w", i+1, err)
			}
			pageSummaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rollup, err := u.Summarize(ctx, strings.Join(pageSummaries, "\n\n"))
	if err != nil {
		return fmt.Errorf("failed to summarize file: %w", err)
	}

	category, err := u.Classify(ctx, rollup)
	if err != nil {
		return err
	}

	var docs []domain.Document
	for i, text := range pages {
		chunks, err := u.chunker.Chunk(text)
		if err != nil {
			return fmt.Errorf("failed to chunk page %d: %w", i+1, err)
		}
		for _, chunk := range chunks {
			docs = append(docs, domain.Document{
				Content: chunk.Content,
				Meta: domain.Metadata{
					Source: filename,
					UserID: userID,
					Page:   i + 1,
				},
			})
		}
	}
	docs = append(docs, domain.Document{
		Content: rollup,
		Meta: domain.Metadata{
			Source:  filename,
			UserID:  userID,
			Summary: true,
		},
	})

	if err := u.replaceAndStore(ctx, category, filename, docs); err != nil {
		return err
	}

	if err := u.fileMap.Assign(ctx, filename, category); err != nil {
		return fmt.Errorf("failed to record file category: %w", err)
	}
	if err := u.history.Append(ctx,
		domain.ChatTurn{Role: domain.RoleUser, Content: fmt.Sprintf("Uploaded file %s", filename)},
		domain.ChatTurn{Role: domain.RoleAssistant, Content: fmt.Sprintf("Summary of %s: %s", filename, rollup)},
	); err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}

	u.logger.Info("pdf_ingested",
		slog.String("filename", filename),
		slog.String("collection", string(category)),
		slog.Int("page_count", len(pages)),
		slog.Int("document_count", len(docs)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return nil
}

// IngestImage describes the uploaded images with the vision model and
// stores the descriptions in the Images collection.
func (u *IngestUsecase) IngestImage(ctx context.Context, imagesB64 []string, filename, userID string) error {
	if len(imagesB64) == 0 {
		return fmt.Errorf("no images provided")
	}

	description, err := u.describer.Describe(ctx, imageDescriptionPrompt, imagesB64)
	if err != nil {
		return fmt.Errorf("failed to describe image: %w", err)
	}

	docs := []domain.Document{{
		Content: description,
		Meta: domain.Metadata{
			Source: filename,
			UserID: userID,
			Image:  true,
		},
	}}
	if err := u.replaceAndStore(ctx, domain.CategoryImages, filename, docs); err != nil {
		return err
	}

	if err := u.fileMap.Assign(ctx, filename, domain.CategoryImages); err != nil {
		return fmt.Errorf("failed to record file category: %w", err)
	}
	if err := u.history.Append(ctx,
		domain.ChatTurn{Role: domain.RoleUser, Content: fmt.Sprintf("Uploaded image %s", filename)},
		domain.ChatTurn{Role: domain.RoleAssistant, Content: fmt.Sprintf("Description of %s: %s", filename, description)},
	); err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}

	u.logger.Info("image_ingested",
		slog.String("filename", filename))

	return nil
}

// StoreDocuments embeds and persists caller-provided documents into a
// collection, bypassing the PDF pipeline.
func (u *IngestUsecase) StoreDocuments(ctx context.Context, category domain.Category, docs []domain.Document) error {
	return u.embedAndStore(ctx, category, docs)
}

// Summarize produces a concise summary of the input text.
func (u *IngestUsecase) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	reply, err := u.llm.Generate(ctx, summaryPrompt+"\n\nInput:\n"+text, 0)
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

// Classify assigns the text to one of the content categories.
func (u *IngestUsecase) Classify(ctx context.Context, text string) (domain.Category, error) {
	raw, err := u.structured.Invoke(ctx, categoryPrompt, text, categorySchema)
	if err != nil {
		return "", fmt.Errorf("classification call failed: %w", err)
	}

	var reply struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", fmt.Errorf("failed to decode classification reply: %w", err)
	}
	return domain.ParseCategory(reply.Category)
}

func (u *IngestUsecase) embedAndStore(ctx context.Context, category domain.Category, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	if err := u.embed(ctx, docs); err != nil {
		return err
	}

	if err := u.store.Store(ctx, category, docs); err != nil {
		return fmt.Errorf("failed to store documents: %w", err)
	}
	return nil
}

// replaceAndStore swaps the file's documents atomically: re-uploading a
// file must never leave a mix of old and new chunks behind. Embedding
// happens before the transaction opens so model latency never holds a
// database connection.
func (u *IngestUsecase) replaceAndStore(ctx context.Context, category domain.Category, source string, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	if err := u.embed(ctx, docs); err != nil {
		return err
	}

	err := u.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := u.store.DeleteBySource(txCtx, source); err != nil {
			return err
		}
		return u.store.Store(txCtx, category, docs)
	})
	if err != nil {
		return fmt.Errorf("failed to store documents: %w", err)
	}
	return nil
}

func (u *IngestUsecase) embed(ctx context.Context, docs []domain.Document) error {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	vectors, err := u.encoder.Encode(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}
	for i := range docs {
		docs[i].Embedding = domain.NewVector(vectors[i])
	}
	return nil
}

func (u *IngestUsecase) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read download body: %w", err)
	}
	return data, nil
}

func extractPages(data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
