package usecase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"knowledge-orchestrator/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCSVRepo struct {
	files map[string]*domain.CSVFile
}

func newStubCSVRepo() *stubCSVRepo {
	return &stubCSVRepo{files: make(map[string]*domain.CSVFile)}
}

func (r *stubCSVRepo) Save(ctx context.Context, file *domain.CSVFile) error {
	r.files[file.Filename] = file
	return nil
}

func (r *stubCSVRepo) Load(ctx context.Context, filename string) (*domain.CSVFile, error) {
	file, ok := r.files[filename]
	if !ok {
		return nil, domain.ErrFileNotMapped
	}
	return file, nil
}

func (r *stubCSVRepo) ListFilenames(ctx context.Context) ([]string, error) {
	var names []string
	for name := range r.files {
		names = append(names, name)
	}
	return names, nil
}

func TestCSVUsecase_IngestCSV(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("city,population\nOslo,700000\nBergen,290000\n"))
	}))
	defer server.Close()

	repo := newStubCSVRepo()
	history := &stubHistory{}
	u := NewCSVUsecase(server.Client(), repo, &stubLLM{}, history, testLogger())

	err := u.IngestCSV(context.Background(), server.URL, "cities.csv", "alice")
	require.NoError(t, err)

	file, err := repo.Load(context.Background(), "cities.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"city", "population"}, file.Header)
	assert.Len(t, file.Rows, 2)

	require.Len(t, history.turns, 2)
	assert.Contains(t, history.turns[1].Content, "Oslo")
}

func TestCSVUsecase_IngestCSV_DownloadError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	u := NewCSVUsecase(server.Client(), newStubCSVRepo(), &stubLLM{}, &stubHistory{}, testLogger())

	err := u.IngestCSV(context.Background(), server.URL, "missing.csv", "alice")
	assert.Error(t, err)
}

func TestCSVUsecase_Query(t *testing.T) {
	repo := newStubCSVRepo()
	require.NoError(t, repo.Save(context.Background(), &domain.CSVFile{
		Filename: "cities.csv",
		Header:   []string{"city", "population"},
		Rows:     [][]string{{"Oslo", "700000"}},
	}))

	llm := &stubLLM{reply: "Oslo has 700000 inhabitants."}
	u := NewCSVUsecase(http.DefaultClient, repo, llm, &stubHistory{}, testLogger())

	answer, err := u.Query(context.Background(), "cities.csv", "how many people live in Oslo?")
	require.NoError(t, err)

	assert.Equal(t, "Oslo has 700000 inhabitants.", answer)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "city,population")
	assert.Contains(t, llm.prompts[0], "how many people live in Oslo?")
}

func TestCSVUsecase_ListFiles(t *testing.T) {
	repo := newStubCSVRepo()
	require.NoError(t, repo.Save(context.Background(), &domain.CSVFile{Filename: "cities.csv"}))

	u := NewCSVUsecase(http.DefaultClient, repo, &stubLLM{}, &stubHistory{}, testLogger())

	names, err := u.ListFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cities.csv"}, names)
}

func TestCSVUsecase_Query_UnknownFile(t *testing.T) {
	u := NewCSVUsecase(http.DefaultClient, newStubCSVRepo(), &stubLLM{}, &stubHistory{}, testLogger())

	_, err := u.Query(context.Background(), "nope.csv", "anything")
	assert.ErrorIs(t, err, domain.ErrFileNotMapped)
}
