package storage

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// MagicHeader opens every filter-set file.
var MagicHeader = []byte("OFSET001")

// footerSize is Count(4) + MinSavedAt(8) + MaxSavedAt(8).
const footerSize = 20

// Record is one stored filter.
type Record struct {
	ID         string
	Name       string
	Expression string
	Digest     string
	Filter     []byte // objectFilter JSON
	SavedAt    int64  // Unix nanoseconds
}

type SetWriter struct {
	encoder *zstd.Encoder
}

func NewSetWriter() (*SetWriter, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	return &SetWriter{encoder: enc}, nil
}

// Close releases the encoder.
func (sw *SetWriter) Close() error {
	return sw.encoder.Close()
}

// WriteSet writes records to filename, replacing it atomically.
func (sw *SetWriter) WriteSet(filename string, records []Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := sw.writeTo(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filename)
}

func (sw *SetWriter) writeTo(f *os.File, records []Record) error {
	// 1. Header
	if _, err := f.Write(MagicHeader); err != nil {
		return err
	}

	// 2. One compressed block per record
	var minTs, maxTs int64
	for i, rec := range records {
		if err := sw.compressAndWrite(f, encodeRecord(rec)); err != nil {
			return err
		}
		if i == 0 || rec.SavedAt < minTs {
			minTs = rec.SavedAt
		}
		if i == 0 || rec.SavedAt > maxTs {
			maxTs = rec.SavedAt
		}
	}

	// 3. Footer
	return sw.writeFooter(f, uint32(len(records)), minTs, maxTs)
}

// encodeRecord serializes a record as [Len uint32][Bytes] fields followed by
// SavedAt.
func encodeRecord(rec Record) []byte {
	buf := new(bytes.Buffer)
	for _, field := range [][]byte{
		[]byte(rec.ID),
		[]byte(rec.Name),
		[]byte(rec.Expression),
		[]byte(rec.Digest),
		rec.Filter,
	} {
		binary.Write(buf, binary.LittleEndian, uint32(len(field)))
		buf.Write(field)
	}
	binary.Write(buf, binary.LittleEndian, rec.SavedAt)
	return buf.Bytes()
}

func (sw *SetWriter) compressAndWrite(f *os.File, raw []byte) error {
	compressed := sw.encoder.EncodeAll(raw, make([]byte, 0, len(raw)))

	// Write Compressed Size (uint32)
	size := uint32(len(compressed))
	if err := binary.Write(f, binary.LittleEndian, size); err != nil {
		return err
	}

	_, err := f.Write(compressed)
	return err
}

func (sw *SetWriter) writeFooter(f *os.File, count uint32, minTs, maxTs int64) error {
	if err := binary.Write(f, binary.LittleEndian, count); err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, minTs); err != nil {
		return err
	}
	return binary.Write(f, binary.LittleEndian, maxTs)
}
