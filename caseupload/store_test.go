package caseupload

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hazyhaar/caseingest/docingest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStorePragmas(t *testing.T) {
	store := openTestStore(t)

	var journalMode string
	if err := store.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatal(err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %q, want wal", journalMode)
	}

	var foreignKeys int
	if err := store.db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
		t.Fatal(err)
	}
	if foreignKeys != 1 {
		t.Errorf("foreign_keys = %d, want 1", foreignKeys)
	}

	var busyTimeout int
	if err := store.db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout); err != nil {
		t.Fatal(err)
	}
	if busyTimeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", busyTimeout)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)

	doc := &Document{
		ID:       NewDocumentID(),
		Filename: "filing.pdf",
		Metadata: docingest.Metadata{
			FileType:         docingest.FormatPDF,
			FileSizeBytes:    2048,
			PageCount:        3,
			ExtractionMethod: docingest.MethodOCR,
			WordCount:        120,
			CharacterCount:   742,
		},
		Text:      "recovered text",
		Errors:    []string{"ocr page 2: smudged"},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := store.InsertDocument(doc); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetDocument(doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("document not found")
	}
	if got.Filename != doc.Filename || got.Text != doc.Text {
		t.Errorf("got %+v", got)
	}
	if got.Metadata != doc.Metadata {
		t.Errorf("metadata mismatch: got %+v, want %+v", got.Metadata, doc.Metadata)
	}
	if len(got.Errors) != 1 || got.Errors[0] != doc.Errors[0] {
		t.Errorf("errors mismatch: %v", got.Errors)
	}
	if !got.CreatedAt.Equal(doc.CreatedAt) {
		t.Errorf("created_at mismatch: %v vs %v", got.CreatedAt, doc.CreatedAt)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := openTestStore(t)
	doc, err := store.GetDocument("doc_nope")
	if err != nil {
		t.Fatal(err)
	}
	if doc != nil {
		t.Errorf("expected nil for missing document, got %+v", doc)
	}
}

func TestStoreListOmitsText(t *testing.T) {
	store := openTestStore(t)
	for i := 0; i < 3; i++ {
		err := store.InsertDocument(&Document{
			ID:        NewDocumentID(),
			Filename:  "f.txt",
			Metadata:  docingest.Metadata{FileType: docingest.FormatTXT, ExtractionMethod: docingest.MethodPlainRead},
			Text:      "full text body",
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	docs, err := store.ListDocuments(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	for _, d := range docs {
		if d.Text != "" {
			t.Errorf("list leaked document text: %q", d.Text)
		}
	}
}

func TestStoreDeleteExpired(t *testing.T) {
	store := openTestStore(t)

	old := &Document{
		ID:        NewDocumentID(),
		Filename:  "old.txt",
		Metadata:  docingest.Metadata{FileType: docingest.FormatTXT, ExtractionMethod: docingest.MethodPlainRead},
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	}
	fresh := &Document{
		ID:        NewDocumentID(),
		Filename:  "fresh.txt",
		Metadata:  docingest.Metadata{FileType: docingest.FormatTXT, ExtractionMethod: docingest.MethodPlainRead},
		CreatedAt: time.Now().UTC(),
	}
	for _, d := range []*Document{old, fresh} {
		if err := store.InsertDocument(d); err != nil {
			t.Fatal(err)
		}
	}

	n, err := store.DeleteExpired(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
	if doc, _ := store.GetDocument(old.ID); doc != nil {
		t.Error("expired document survived the sweep")
	}
	if doc, _ := store.GetDocument(fresh.ID); doc == nil {
		t.Error("fresh document was swept")
	}
}
