package storage

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func sampleRecords() []Record {
	return []Record{
		{
			ID:         "3f1c0b7e-0000-4000-8000-000000000001",
			Name:       "web-guests",
			Expression: `virtualGuests.hostname:contains("web")`,
			Digest:     "abc123",
			Filter:     []byte(`{"virtualGuests":{"hostname":{"operation":"*=web"}}}`),
			SavedAt:    200,
		},
		{
			ID:      "3f1c0b7e-0000-4000-8000-000000000002",
			Name:    "empty",
			Filter:  []byte(`{}`),
			SavedAt: 100,
		},
	}
}

func writeSample(t *testing.T, records []Record) string {
	t.Helper()
	w, err := NewSetWriter()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	path := filepath.Join(t.TempDir(), "filters.ofs")
	if err := w.WriteSet(path, records); err != nil {
		t.Fatalf("WriteSet: %v", err)
	}
	return path
}

func TestWriteReadSet(t *testing.T) {
	want := sampleRecords()
	path := writeSample(t, want)

	r, err := NewSetReader()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	got, info, err := r.ReadSet(path)
	if err != nil {
		t.Fatalf("ReadSet: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("records mismatch:\n got %+v\nwant %+v", got, want)
	}
	if info.Count != 2 || info.MinSavedAt != 100 || info.MaxSavedAt != 200 {
		t.Errorf("info = %+v", info)
	}
}

func TestWriteReadEmptySet(t *testing.T) {
	path := writeSample(t, nil)

	info, err := Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Count != 0 {
		t.Errorf("count = %d", info.Count)
	}

	r, _ := NewSetReader()
	defer r.Close()
	got, _, err := r.ReadSet(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}

func TestWriteSetReplaces(t *testing.T) {
	path := writeSample(t, sampleRecords())

	w, _ := NewSetWriter()
	defer w.Close()
	if err := w.WriteSet(path, sampleRecords()[:1]); err != nil {
		t.Fatal(err)
	}

	info, err := Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Count != 1 {
		t.Errorf("count = %d, want 1", info.Count)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestReadInvalidHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ofs")
	if err := os.WriteFile(path, []byte("NANOLOG1xxxxxxxxxxxxxxxxxxxxxxxx"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, _ := NewSetReader()
	defer r.Close()
	if _, _, err := r.ReadSet(path); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("expected ErrInvalidHeader, got %v", err)
	}
}

func TestReadTooSmall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.ofs")
	if err := os.WriteFile(path, MagicHeader, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Stat(path); !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestReadTruncatedRecord(t *testing.T) {
	path := writeSample(t, sampleRecords())
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// Drop bytes from the middle of the first record, keeping the footer.
	footer := data[len(data)-footerSize:]
	cut := append([]byte{}, data[:len(MagicHeader)+6]...)
	cut = append(cut, footer...)
	if err := os.WriteFile(path, cut, 0o644); err != nil {
		t.Fatal(err)
	}

	r, _ := NewSetReader()
	defer r.Close()
	if _, _, err := r.ReadSet(path); !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestReadFooterCountMismatch(t *testing.T) {
	path := writeSample(t, sampleRecords())
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// Claim one record while two are stored.
	data[len(data)-footerSize] = 1
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	r, _ := NewSetReader()
	defer r.Close()
	if _, _, err := r.ReadSet(path); !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestReadOversizedBlock(t *testing.T) {
	// Header, a block length far past the end of the file, then a footer
	// claiming one record.
	data := append([]byte{}, MagicHeader...)
	data = binary.LittleEndian.AppendUint32(data, 0xF0000000)
	footer := make([]byte, footerSize)
	binary.LittleEndian.PutUint32(footer[0:4], 1)
	data = append(data, footer...)

	path := filepath.Join(t.TempDir(), "oversized.ofs")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	r, _ := NewSetReader()
	defer r.Close()
	_, _, err := r.ReadSet(path)
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("expected a size check error, got %v", err)
	}
}
