package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"knowledge-orchestrator/internal/domain"
)

// csvSampleRows caps how many rows go into the question prompt.
const csvSampleRows = 50

// CSVUsecase ingests tabular files and answers questions over them.
type CSVUsecase struct {
	httpClient *http.Client
	repo       domain.CSVRepository
	llm        domain.LLMClient
	history    domain.HistoryStore
	logger     *slog.Logger
}

func NewCSVUsecase(
	httpClient *http.Client,
	repo domain.CSVRepository,
	llm domain.LLMClient,
	history domain.HistoryStore,
	logger *slog.Logger,
) *CSVUsecase {
	return &CSVUsecase{
		httpClient: httpClient,
		repo:       repo,
		llm:        llm,
		history:    history,
		logger:     logger,
	}
}

// IngestCSV downloads and parses the file, persists header and rows,
// and records a short preview in the conversation history.
func (u *CSVUsecase) IngestCSV(ctx context.Context, url, filename, userID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	records, err := csv.NewReader(resp.Body).ReadAll()
	if err != nil {
		return fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("csv %q is empty", filename)
	}

	file := &domain.CSVFile{
		Filename: filename,
		Header:   records[0],
		Rows:     records[1:],
	}
	if err := u.repo.Save(ctx, file); err != nil {
		return err
	}

	preview := renderTable(file.Header, file.Rows, 5)
	if err := u.history.Append(ctx,
		domain.ChatTurn{Role: domain.RoleUser, Content: fmt.Sprintf("Uploaded file %s", filename)},
		domain.ChatTurn{Role: domain.RoleAssistant, Content: fmt.Sprintf("Preview of %s:\n%s", filename, preview)},
	); err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}

	u.logger.Info("csv_ingested",
		slog.String("filename", filename),
		slog.Int("row_count", len(file.Rows)))

	return nil
}

// Query answers a question over a stored file by prompting the model
// with the header and a sample of rows.
func (u *CSVUsecase) Query(ctx context.Context, filename, question string) (string, error) {
	file, err := u.repo.Load(ctx, filename)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf("%s\n\nTable %s:\n%s\nQuestion: %s\nAnswer:",
		csvAnswerPrompt, file.Filename, renderTable(file.Header, file.Rows, csvSampleRows), question)

	reply, err := u.llm.Generate(ctx, prompt, 0)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	u.logger.Info("csv_query_answered",
		slog.String("filename", filename))

	return reply.Text, nil
}

// ListFiles returns the filenames of every ingested CSV.
func (u *CSVUsecase) ListFiles(ctx context.Context) ([]string, error) {
	return u.repo.ListFilenames(ctx)
}

func renderTable(header []string, rows [][]string, limit int) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(header)
	for i, row := range rows {
		if i >= limit {
			break
		}
		_ = w.Write(row)
	}
	w.Flush()
	if len(rows) > limit {
		fmt.Fprintf(&buf, "... (%d more rows)\n", len(rows)-limit)
	}
	return strings.TrimRight(buf.String(), "\n")
}
