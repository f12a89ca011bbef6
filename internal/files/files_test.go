package files

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
)

type memStore struct {
	files   []File
	failing bool
}

func (m *memStore) CreateFile(_ context.Context, f *File) error {
	if m.failing {
		return errors.New("db down")
	}
	m.files = append(m.files, *f)
	return nil
}

func (m *memStore) FilesByUser(_ context.Context, userID string, limit int) ([]File, error) {
	var out []File
	for _, f := range m.files {
		if f.UploadedBy == userID && len(out) < limit {
			out = append(out, f)
		}
	}
	return out, nil
}

type captureSink struct {
	events []string
}

func (c *captureSink) Record(_ context.Context, action, _, _, status string, _ map[string]any) {
	c.events = append(c.events, action+":"+status)
}

func newTestFiles(t *testing.T, store Store, opts ...Option) *Service {
	t.Helper()
	svc, err := NewService(store, t.TempDir(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestUploadWritesDiskAndMetadata(t *testing.T) {
	store := &memStore{}
	sink := &captureSink{}
	svc := newTestFiles(t, store, WithAuditSink(sink))

	content := []byte("%PDF-1.4 test")
	f, err := svc.Upload(context.Background(), "u1", "report.pdf", "application/pdf", content)
	if err != nil {
		t.Fatal(err)
	}
	if f.OriginalName != "report.pdf" || f.Size != int64(len(content)) {
		t.Fatalf("unexpected metadata: %+v", f)
	}
	if !strings.HasSuffix(f.Name, ".pdf") {
		t.Fatalf("stored name should keep the extension, got %q", f.Name)
	}
	if f.Name == "report.pdf" {
		t.Fatal("stored name must not be the client-supplied name")
	}

	onDisk, err := os.ReadFile(f.Path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(onDisk, content) {
		t.Fatal("disk content differs from upload")
	}
	if len(store.files) != 1 {
		t.Fatalf("expected 1 metadata row, got %d", len(store.files))
	}
	if len(sink.events) != 1 || sink.events[0] != "file.upload:success" {
		t.Fatalf("unexpected audit events: %v", sink.events)
	}
}

func TestUploadRejectsOversize(t *testing.T) {
	sink := &captureSink{}
	svc := newTestFiles(t, &memStore{}, WithMaxSize(10), WithAuditSink(sink))

	_, err := svc.Upload(context.Background(), "u1", "big.pdf", "application/pdf", bytes.Repeat([]byte("x"), 11))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if len(sink.events) != 1 || sink.events[0] != "file.upload:failure" {
		t.Fatalf("rejection should be audited, got %v", sink.events)
	}
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	sink := &captureSink{}
	svc := newTestFiles(t, &memStore{}, WithAuditSink(sink))

	_, err := svc.Upload(context.Background(), "u1", "app.exe", "application/x-msdownload", []byte("MZ"))
	if !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	if len(sink.events) != 1 || sink.events[0] != "file.upload:failure" {
		t.Fatalf("rejection should be audited, got %v", sink.events)
	}
}

func TestUploadValidatesInput(t *testing.T) {
	svc := newTestFiles(t, &memStore{})
	ctx := context.Background()

	if _, err := svc.Upload(ctx, "", "a.pdf", "application/pdf", []byte("x")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing user: %v", err)
	}
	if _, err := svc.Upload(ctx, "u1", "", "application/pdf", []byte("x")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing name: %v", err)
	}
	if _, err := svc.Upload(ctx, "u1", "a.pdf", "application/pdf", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty content: %v", err)
	}
}

func TestUploadRemovesFileWhenInsertFails(t *testing.T) {
	svc := newTestFiles(t, &memStore{failing: true})

	_, err := svc.Upload(context.Background(), "u1", "report.pdf", "application/pdf", []byte("x"))
	if err == nil {
		t.Fatal("expected the store failure to surface")
	}

	// Nothing may be left behind on disk.
	entries, err := os.ReadDir(svc.dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("orphaned files on disk: %d", len(entries))
	}
}

func TestListByUserScopesToOwner(t *testing.T) {
	store := &memStore{}
	svc := newTestFiles(t, store)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, "u1", "a.png", "image/png", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Upload(ctx, "u2", "b.png", "image/png", []byte("y")); err != nil {
		t.Fatal(err)
	}

	list, err := svc.ListByUser(ctx, "u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].OriginalName != "a.png" {
		t.Fatalf("unexpected listing: %+v", list)
	}
}
