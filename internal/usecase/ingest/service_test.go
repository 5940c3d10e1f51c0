package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/calyptra/docqa/internal/domain"
	"github.com/calyptra/docqa/internal/index"
)

// --- Fakes ---

type fakeExtractor struct {
	docs map[string]domain.Document
	errs map[string]error
}

func (f *fakeExtractor) ProcessFile(_ context.Context, path string) (domain.Document, error) {
	if err := f.errs[path]; err != nil {
		return domain.Document{}, err
	}
	doc, ok := f.docs[path]
	if !ok {
		return domain.Document{}, errors.New("unexpected path: " + path)
	}
	return doc, nil
}

type fakeEmbedder struct {
	calls      int
	batchSizes []int
	err        error
	shortBy    int // return this many fewer vectors than requested
}

func (f *fakeEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.calls++
	f.batchSizes = append(f.batchSizes, len(texts))
	if f.err != nil {
		return domain.BatchEmbeddingResult{}, f.err
	}
	n := len(texts) - f.shortBy
	vecs := make([][]float32, n)
	for i := range vecs {
		vecs[i] = []float32{float32(i)}
	}
	return domain.BatchEmbeddingResult{Embeddings: vecs, TotalTokens: 10 * len(texts)}, nil
}

type fakeIndexer struct {
	collections map[string][]index.Entry
	err         error
}

func (f *fakeIndexer) Add(_ context.Context, collection string, entries []index.Entry) error {
	if f.err != nil {
		return f.err
	}
	if f.collections == nil {
		f.collections = make(map[string][]index.Entry)
	}
	f.collections[collection] = append(f.collections[collection], entries...)
	return nil
}

type fakeRecorder struct {
	ingests int
	tokens  int
}

func (f *fakeRecorder) RecordIngest(domain.Stats, time.Duration) { f.ingests++ }
func (f *fakeRecorder) AddEmbeddingTokens(n int)                 { f.tokens += n }

// --- Helpers ---

func textChunk(doc string, page, idx int, text string) domain.Chunk {
	return domain.Chunk{
		ID:          domain.ChunkID(doc, page, idx),
		Text:        text,
		DocName:     doc,
		PageNum:     page,
		ChunkIndex:  idx,
		WordCount:   len(strings.Fields(text)),
		TokenCount:  domain.EstimateTokens(text),
		ContentType: domain.ContentTypeText,
	}
}

// twoChunkDoc mirrors a 1200-word page chunked at size 1000 / overlap 200:
// two text chunks plus a stored page rasterization.
func twoChunkDoc(name string) domain.Document {
	return domain.Document{
		Name: name,
		Pages: []domain.Page{{
			Number:     0,
			TextSource: domain.TextSourceNative,
			PageImage:  []byte("png"),
			Chunks: []domain.Chunk{
				textChunk(name, 0, 0, "first window of the page text"),
				textChunk(name, 0, 1, "second overlapping window of text"),
			},
		}},
	}
}

func newService(ex *fakeExtractor, em Embedder, st *fakeIndexer, rec *fakeRecorder) *Service {
	return New(ex, em, st, nil, rec, zap.NewNop())
}

// --- Tests ---

func TestIngestFile_IndexesChunksAndPageImage(t *testing.T) {
	ex := &fakeExtractor{docs: map[string]domain.Document{
		"/data/manual.pdf": twoChunkDoc("manual"),
	}}
	em := &fakeEmbedder{}
	st := &fakeIndexer{}
	rec := &fakeRecorder{}

	res, err := newService(ex, em, st, rec).IngestFile(context.Background(), "/data/manual.pdf", "docs")
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}

	entries := st.collections["docs"]
	if len(entries) != 3 {
		t.Fatalf("expected 2 text records + 1 page-image record, got %d", len(entries))
	}

	wantIDs := []string{"manual_page_0_0", "manual_page_0_1", "manual_page_0_image"}
	for i, want := range wantIDs {
		if entries[i].ID != want {
			t.Errorf("entry[%d].ID = %q, want %q", i, entries[i].ID, want)
		}
	}

	img := entries[2]
	if img.Metadata.ContentType != domain.ContentTypePageImage {
		t.Errorf("page-image content type = %q", img.Metadata.ContentType)
	}
	if img.Text != "[PAGE_IMAGE] Page 0 of manual" {
		t.Errorf("placeholder = %q", img.Text)
	}
	for i, e := range entries {
		if len(e.Vector) == 0 {
			t.Errorf("entry[%d] has no vector", i)
		}
	}

	if res.Stats.TotalChunks != 2 || res.Stats.TotalPages != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if rec.ingests != 1 {
		t.Errorf("recorder ingests = %d, want 1", rec.ingests)
	}
	if rec.tokens != 30 {
		t.Errorf("recorded tokens = %d, want 30", rec.tokens)
	}
}

func TestIngestFile_NoEmbedderStoresWithoutVectors(t *testing.T) {
	ex := &fakeExtractor{docs: map[string]domain.Document{
		"/data/manual.pdf": twoChunkDoc("manual"),
	}}
	st := &fakeIndexer{}

	_, err := newService(ex, nil, st, &fakeRecorder{}).
		IngestFile(context.Background(), "/data/manual.pdf", "docs")
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}

	for i, e := range st.collections["docs"] {
		if e.Vector != nil {
			t.Errorf("entry[%d] has a vector without an embedding provider", i)
		}
	}
}

func TestIngestFile_EmbedderFailureIsReturned(t *testing.T) {
	ex := &fakeExtractor{docs: map[string]domain.Document{
		"/data/manual.pdf": twoChunkDoc("manual"),
	}}
	em := &fakeEmbedder{err: errors.New("provider down")}
	st := &fakeIndexer{}

	_, err := newService(ex, em, st, &fakeRecorder{}).
		IngestFile(context.Background(), "/data/manual.pdf", "docs")
	if err == nil {
		t.Fatal("expected embedding failure to propagate")
	}
	if len(st.collections) != 0 {
		t.Error("nothing must be indexed after an embedding failure")
	}
}

func TestIngestFile_VectorCountMismatchIsRejected(t *testing.T) {
	ex := &fakeExtractor{docs: map[string]domain.Document{
		"/data/manual.pdf": twoChunkDoc("manual"),
	}}
	em := &fakeEmbedder{shortBy: 1}

	_, err := newService(ex, em, &fakeIndexer{}, &fakeRecorder{}).
		IngestFile(context.Background(), "/data/manual.pdf", "docs")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestIngestFile_EmptyDocumentSkipsIndexing(t *testing.T) {
	ex := &fakeExtractor{docs: map[string]domain.Document{
		"/data/blank.pdf": {Name: "blank", Pages: []domain.Page{{Number: 0, TextSource: domain.TextSourceNone}}},
	}}
	em := &fakeEmbedder{}
	st := &fakeIndexer{}

	res, err := newService(ex, em, st, &fakeRecorder{}).
		IngestFile(context.Background(), "/data/blank.pdf", "docs")
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if em.calls != 0 {
		t.Errorf("embedder ran %d times for an empty document", em.calls)
	}
	if len(st.collections) != 0 {
		t.Error("empty document must not be indexed")
	}
	if res.Files[0].Chunks != 0 {
		t.Errorf("chunks = %d, want 0", res.Files[0].Chunks)
	}
}

type fakeImageStore struct {
	stored map[string][]byte
}

func (f *fakeImageStore) Put(_, id string, png []byte) {
	if f.stored == nil {
		f.stored = make(map[string][]byte)
	}
	f.stored[id] = png
}

func TestIngestFile_RetainsPageRasters(t *testing.T) {
	ex := &fakeExtractor{docs: map[string]domain.Document{
		"/data/manual.pdf": twoChunkDoc("manual"),
	}}
	images := &fakeImageStore{}
	svc := New(ex, &fakeEmbedder{}, &fakeIndexer{}, images, &fakeRecorder{}, zap.NewNop())

	if _, err := svc.IngestFile(context.Background(), "/data/manual.pdf", "docs"); err != nil {
		t.Fatalf("IngestFile: %v", err)
	}

	if png, ok := images.stored["manual_page_0_image"]; !ok || string(png) != "png" {
		t.Errorf("raster not retained: %v", images.stored)
	}
}

func TestIngestFolder_IsolatesFailingFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.pdf")
	bad := filepath.Join(dir, "bad.pdf")
	for _, p := range []string{good, bad} {
		if err := os.WriteFile(p, []byte("%PDF"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	ex := &fakeExtractor{
		docs: map[string]domain.Document{good: twoChunkDoc("good")},
		errs: map[string]error{bad: errors.New("malformed xref")},
	}
	st := &fakeIndexer{}

	res, err := newService(ex, &fakeEmbedder{}, st, &fakeRecorder{}).
		IngestFolder(context.Background(), dir, "docs")
	if err != nil {
		t.Fatalf("IngestFolder: %v", err)
	}

	if len(res.Files) != 2 {
		t.Fatalf("expected 2 file results, got %d", len(res.Files))
	}
	var failed, ok int
	for _, f := range res.Files {
		if f.Err != nil {
			failed++
		} else {
			ok++
		}
	}
	if failed != 1 || ok != 1 {
		t.Errorf("failed=%d ok=%d, want 1/1", failed, ok)
	}
	if len(st.collections["docs"]) == 0 {
		t.Error("surviving file must still be indexed")
	}
	if res.Stats.DocumentsIngested != 1 {
		t.Errorf("documents ingested = %d, want 1", res.Stats.DocumentsIngested)
	}
}

func TestIngestFolder_CancellationBetweenDocuments(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.pdf", "b.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ex := &fakeExtractor{docs: map[string]domain.Document{}}
	_, err := newService(ex, &fakeEmbedder{}, &fakeIndexer{}, &fakeRecorder{}).
		IngestFolder(ctx, dir, "docs")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestIngestFolder_NoPDFsIsNotFound(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := newService(&fakeExtractor{}, &fakeEmbedder{}, &fakeIndexer{}, &fakeRecorder{}).
		IngestFolder(context.Background(), dir, "docs")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIngestFolder_DiscoversNestedAndMixedCase(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "sub")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	upper := filepath.Join(dir, "UPPER.PDF")
	deep := filepath.Join(nested, "deep.pdf")
	for _, p := range []string{upper, deep} {
		if err := os.WriteFile(p, []byte("%PDF"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	ex := &fakeExtractor{docs: map[string]domain.Document{
		upper: twoChunkDoc("UPPER"),
		deep:  twoChunkDoc("deep"),
	}}
	st := &fakeIndexer{}

	res, err := newService(ex, &fakeEmbedder{}, st, &fakeRecorder{}).
		IngestFolder(context.Background(), dir, "docs")
	if err != nil {
		t.Fatalf("IngestFolder: %v", err)
	}
	if len(res.Files) != 2 {
		t.Fatalf("expected both nested and uppercase files, got %d", len(res.Files))
	}
}
