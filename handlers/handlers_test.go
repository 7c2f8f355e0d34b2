package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tendercheck-backend/classifier"
	"tendercheck-backend/corpus"
	"tendercheck-backend/embedding"
	"tendercheck-backend/models"
	"tendercheck-backend/ratelimit"
	"tendercheck-backend/repository"
	"tendercheck-backend/retrieval"
	"tendercheck-backend/service"
)

const (
	bestekText     = "Bestek\nDe inschrijver voegt een KvK-uittreksel en het UEA toe.\n"
	submissionText = "Inschrijving\nBijlage 1: Uniform Europees Aanbestedingsdocument (UEA), ondertekend.\n"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type memoryAnalyses struct {
	mu    sync.Mutex
	items map[uuid.UUID]*models.Analysis
}

func (m *memoryAnalyses) Create(ctx context.Context, a *models.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = make(map[uuid.UUID]*models.Analysis)
	}
	m.items[a.ID] = a
	return nil
}

func (m *memoryAnalyses) GetByID(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

type memoryDocuments struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*models.Document
}

func (m *memoryDocuments) Save(ctx context.Context, doc *models.Document) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs == nil {
		m.docs = make(map[uuid.UUID]*models.Document)
	}
	m.docs[doc.ID] = doc
	return doc.ID, nil
}

func (m *memoryDocuments) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return doc, nil
}

func (m *memoryDocuments) Search(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Document{}
	for _, doc := range m.docs {
		if filter.Kind == "" || doc.Kind == filter.Kind {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, cfg RouterConfig, opts ...service.AnalysisServiceOption) *gin.Engine {
	t.Helper()
	embedder := embedding.NewResilient(embedding.NewHashEmbedder(64))
	retriever := retrieval.NewRetriever(embedder, corpus.LegalChunks())
	base := []service.AnalysisServiceOption{
		service.AnalysisWithRetriever(retriever),
		service.AnalysisWithClassifier(classifier.New()),
	}
	cfg.Analyses = service.NewAnalysisService(append(base, opts...)...)
	return NewRouter(cfg)
}

type formFile struct {
	field, name, content string
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func analysisRequest(t *testing.T, fields map[string]string) *http.Request {
	return multipartRequest(t, "/api/analyses", fields,
		formFile{"bestek", "bestek.txt", bestekText},
		formFile{"inschrijving", "inschrijving.txt", submissionText},
	)
}

func serve(r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, RouterConfig{})
	w, _ := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestChecklists(t *testing.T) {
	r := newTestRouter(t, RouterConfig{})

	w, env := serve(r, httptest.NewRequest(http.MethodGet, "/api/checklists", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var summaries []struct {
		ID        string `json:"id"`
		ItemCount int    `json:"item_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, "basis-aanbesteding", summaries[0].ID)
	assert.Equal(t, 5, summaries[0].ItemCount)
	assert.Equal(t, 7, summaries[1].ItemCount)

	w, env = serve(r, httptest.NewRequest(http.MethodGet, "/api/checklists/eu-aanbesteding", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var cl models.Checklist
	require.NoError(t, json.Unmarshal(env.Data, &cl))
	assert.Equal(t, "UEA", cl.Items[0].ID)

	w, env = serve(r, httptest.NewRequest(http.MethodGet, "/api/checklists/onbekend", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestCreateAnalysis(t *testing.T) {
	r := newTestRouter(t, RouterConfig{})

	w, env := serve(r, analysisRequest(t, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, env.Success)

	var resp AnalysisResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Len(t, resp.Results, 5)
	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.Equal(t, "UEA", resp.Results[0].ID)
	assert.Equal(t, "Referenties", resp.Results[4].ID)
	assert.Equal(t, 5, resp.Metadata.TotalItems)
	assert.Equal(t, "basis-aanbesteding", resp.Metadata.ChecklistID)
	assert.Equal(t, "1.0", resp.Metadata.ChecklistVersion)
	assert.Equal(t, "bestek.txt", resp.Metadata.BestekFile)
	assert.Equal(t, "inschrijving.txt", resp.Metadata.InschrijvingFile)
	assert.Equal(t, resp.OverallScore, resp.Metadata.ComplianceScore)
	assert.NotEmpty(t, resp.RiskLevel)
	for _, item := range resp.Results {
		assert.NotNil(t, item.Evidence, item.ID)
		assert.NotNil(t, item.SourceReferences, item.ID)
	}

	// Raw keys use the camelCase API names
	assert.Contains(t, string(env.Data), `"needsReview"`)
	assert.Contains(t, string(env.Data), `"criticalIssues"`)
}

func TestCreateAnalysis_EUChecklist(t *testing.T) {
	r := newTestRouter(t, RouterConfig{})

	w, env := serve(r, analysisRequest(t, map[string]string{"checklist_id": "eu-aanbesteding"}))
	require.Equal(t, http.StatusOK, w.Code)
	var resp AnalysisResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Len(t, resp.Results, 7)
	assert.Equal(t, "eu-aanbesteding", resp.Metadata.ChecklistID)
}

func TestCreateAnalysis_Validation(t *testing.T) {
	tests := []struct {
		name     string
		maxSize  int64
		fields   map[string]string
		files    []formFile
		wantCode string
	}{
		{
			name:     "missing submission",
			files:    []formFile{{"bestek", "bestek.txt", bestekText}},
			wantCode: "MISSING_FILE",
		},
		{
			name:    "file too large",
			maxSize: 32,
			files: []formFile{
				{"bestek", "bestek.txt", strings.Repeat("a", 64)},
				{"inschrijving", "inschrijving.txt", submissionText},
			},
			wantCode: "FILE_TOO_LARGE",
		},
		{
			name: "executable name",
			files: []formFile{
				{"bestek", "setup.exe", bestekText},
				{"inschrijving", "inschrijving.txt", submissionText},
			},
			wantCode: "INVALID_FILENAME",
		},
		{
			name: "reserved device name",
			files: []formFile{
				{"bestek", "bestek.txt", bestekText},
				{"inschrijving", "CON.txt", submissionText},
			},
			wantCode: "INVALID_FILENAME",
		},
		{
			name: "unsupported extension",
			files: []formFile{
				{"bestek", "bestek.png", bestekText},
				{"inschrijving", "inschrijving.txt", submissionText},
			},
			wantCode: "INVALID_FILE_TYPE",
		},
		{
			name: "corrupt pdf",
			files: []formFile{
				{"bestek", "bestek.pdf", "%PDF-1.4\nnot really a pdf"},
				{"inschrijving", "inschrijving.txt", submissionText},
			},
			wantCode: "UNREADABLE_FILE",
		},
		{
			name:   "unknown checklist",
			fields: map[string]string{"checklist_id": "bestaat-niet"},
			files: []formFile{
				{"bestek", "bestek.txt", bestekText},
				{"inschrijving", "inschrijving.txt", submissionText},
			},
			wantCode: "UNKNOWN_CHECKLIST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, RouterConfig{MaxFileSize: tt.maxSize})
			w, env := serve(r, multipartRequest(t, "/api/analyses", tt.fields, tt.files...))
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.NotEmpty(t, env.Error.Message)
		})
	}
}

func TestGetAnalysis(t *testing.T) {
	store := &memoryAnalyses{}
	r := newTestRouter(t, RouterConfig{}, service.AnalysisWithStore(store))

	w, env := serve(r, analysisRequest(t, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var created AnalysisResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))

	w, env = serve(r, httptest.NewRequest(http.MethodGet, "/api/analyses/"+created.ID.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	var loaded AnalysisResponse
	require.NoError(t, json.Unmarshal(env.Data, &loaded))
	assert.Equal(t, created.ID, loaded.ID)
	assert.Equal(t, created.OverallScore, loaded.OverallScore)
	assert.Len(t, loaded.Results, 5)

	w, env = serve(r, httptest.NewRequest(http.MethodGet, "/api/analyses/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w, env = serve(r, httptest.NewRequest(http.MethodGet, "/api/analyses/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", env.Error.Code)
}

func TestGetAnalysis_NotConfigured(t *testing.T) {
	r := newTestRouter(t, RouterConfig{})
	w, env := serve(r, httptest.NewRequest(http.MethodGet, "/api/analyses/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, "NOT_CONFIGURED", env.Error.Code)
}

func TestLegalSearch(t *testing.T) {
	r := newTestRouter(t, RouterConfig{})

	w, env := serve(r, httptest.NewRequest(http.MethodGet, "/api/legal/search?q=uitsluitingsgronden&k=2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Mode    retrieval.Mode           `json:"mode"`
		Results []models.RetrievalResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, retrieval.ModeKeyword, data.Mode)
	assert.NotEmpty(t, data.Results)
	assert.LessOrEqual(t, len(data.Results), 2)

	w, env = serve(r, httptest.NewRequest(http.MethodGet, "/api/legal/search", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_QUERY", env.Error.Code)

	w, env = serve(r, httptest.NewRequest(http.MethodGet, "/api/legal/search?q=kvk&k=nul", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_K", env.Error.Code)
}

func jsonRequest(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateEmbedding(t *testing.T) {
	r := newTestRouter(t, RouterConfig{Embedder: embedding.NewResilient(embedding.NewHashEmbedder(16))})

	w, env := serve(r, jsonRequest("/api/embeddings", `{"text":"KvK-uittreksel niet ouder dan 6 maanden"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp EmbeddingResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Len(t, resp.Embedding, 16)
	assert.Equal(t, 16, resp.Dimensions)
	assert.True(t, resp.Degraded, "hash vectors are placeholders")

	tests := []struct {
		name, body string
		status     int
		code       string
	}{
		{"missing text", `{}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"blank text", `{"text":"   "}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"not json", `text=kvk`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"too long", `{"text":"` + strings.Repeat("a", maxEmbeddingText+1) + `"}`, http.StatusRequestEntityTooLarge, "TEXT_TOO_LONG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := serve(r, jsonRequest("/api/embeddings", tt.body))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestCreateEmbedding_NotConfigured(t *testing.T) {
	r := newTestRouter(t, RouterConfig{})
	w, env := serve(r, jsonRequest("/api/embeddings", `{"text":"UEA"}`))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, "NOT_CONFIGURED", env.Error.Code)
}

func TestRateLimit(t *testing.T) {
	r := newTestRouter(t, RouterConfig{Limiter: ratelimit.New(2)})

	for i := 0; i < 2; i++ {
		w, _ := serve(r, httptest.NewRequest(http.MethodGet, "/api/checklists", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, env := serve(r, httptest.NewRequest(http.MethodGet, "/api/checklists", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMITED", env.Error.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// Health is outside the limited group
	w, _ = serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDocuments_NotConfigured(t *testing.T) {
	r := newTestRouter(t, RouterConfig{})

	w, env := serve(r, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, "NOT_CONFIGURED", env.Error.Code)

	req := multipartRequest(t, "/api/documents", map[string]string{"kind": "bestek"},
		formFile{"file", "bestek.txt", bestekText})
	w, env = serve(r, req)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, "NOT_CONFIGURED", env.Error.Code)
}

func TestDocuments(t *testing.T) {
	docs := service.NewDocumentService(service.DocumentWithStore(&memoryDocuments{}))
	r := newTestRouter(t, RouterConfig{Documents: docs})

	req := multipartRequest(t, "/api/documents",
		map[string]string{"kind": "legal", "tags": "arw, gunning,"},
		formFile{"file", "arw.txt", "ARW 2016 paragraaf 2.5.3"})
	w, env := serve(r, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var doc models.Document
	require.NoError(t, json.Unmarshal(env.Data, &doc))
	assert.Equal(t, models.DocumentLegal, doc.Kind)
	assert.Equal(t, []string{"arw", "gunning"}, doc.Tags)
	assert.Equal(t, "ARW 2016 paragraaf 2.5.3", doc.Content)

	w, env = serve(r, httptest.NewRequest(http.MethodGet, "/api/documents/"+doc.ID.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)

	w, env = serve(r, httptest.NewRequest(http.MethodGet, "/api/documents?kind=legal", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var listed []models.Document
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Len(t, listed, 1)

	w, env = serve(r, httptest.NewRequest(http.MethodGet, "/api/documents?kind=brief", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_KIND", env.Error.Code)

	w, env = serve(r, httptest.NewRequest(http.MethodGet, "/api/documents/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	req = multipartRequest(t, "/api/documents", map[string]string{"kind": "memo"},
		formFile{"file", "memo.txt", "x"})
	w, env = serve(r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_KIND", env.Error.Code)
}

func TestCreateAnalysis_LinksStoredDocuments(t *testing.T) {
	store := &memoryDocuments{}
	docs := service.NewDocumentService(service.DocumentWithStore(store))
	analyses := &memoryAnalyses{}
	r := newTestRouter(t, RouterConfig{Documents: docs}, service.AnalysisWithStore(analyses))

	w, env := serve(r, analysisRequest(t, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var resp AnalysisResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))

	stored, err := analyses.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.BestekDocumentID)
	require.NotNil(t, stored.SubmissionDocumentID)

	bestek, err := store.GetByID(context.Background(), *stored.BestekDocumentID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentBestek, bestek.Kind)
	assert.Equal(t, "bestek.txt", bestek.Filename)
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{}, splitTags(""))
	assert.Equal(t, []string{"a", "b"}, splitTags(" a ,, b "))
}
