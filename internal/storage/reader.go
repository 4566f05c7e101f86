package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

var (
	ErrInvalidHeader = errors.New("invalid filter set header")
	ErrCorrupt       = errors.New("corrupt filter set")
)

// SetInfo is the footer summary of a filter-set file.
type SetInfo struct {
	Count      int
	MinSavedAt int64
	MaxSavedAt int64
}

// maxRecordSize caps the decompressed size of one record.
const maxRecordSize = 64 << 20

type SetReader struct {
	decoder *zstd.Decoder
}

func NewSetReader() (*SetReader, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxRecordSize))
	if err != nil {
		return nil, err
	}
	return &SetReader{decoder: dec}, nil
}

// Close releases the decoder.
func (sr *SetReader) Close() {
	sr.decoder.Close()
}

// ReadSet reads every record in filename.
func (sr *SetReader) ReadSet(filename string) ([]Record, SetInfo, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, SetInfo{}, err
	}
	defer f.Close()

	info, err := readInfo(f)
	if err != nil {
		return nil, SetInfo{}, err
	}

	// Records sit between the header and the footer.
	stat, err := f.Stat()
	if err != nil {
		return nil, SetInfo{}, err
	}
	body := io.NewSectionReader(f, int64(len(MagicHeader)), stat.Size()-int64(len(MagicHeader))-footerSize)

	records := make([]Record, 0, min(info.Count, 1024))
	for i := 0; i < info.Count; i++ {
		raw, err := sr.readAndDecompress(body)
		if err != nil {
			return nil, SetInfo{}, fmt.Errorf("%w: record %d: %v", ErrCorrupt, i, err)
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, SetInfo{}, fmt.Errorf("%w: record %d: %v", ErrCorrupt, i, err)
		}
		records = append(records, rec)
	}

	// Trailing bytes mean the footer count is wrong.
	if n, _ := io.Copy(io.Discard, body); n != 0 {
		return nil, SetInfo{}, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, n)
	}

	return records, info, nil
}

// Stat reads only the header and footer of filename.
func Stat(filename string) (SetInfo, error) {
	f, err := os.Open(filename)
	if err != nil {
		return SetInfo{}, err
	}
	defer f.Close()
	return readInfo(f)
}

func readInfo(f *os.File) (SetInfo, error) {
	// 1. Validate Header
	header := make([]byte, len(MagicHeader))
	if _, err := io.ReadFull(f, header); err != nil {
		return SetInfo{}, ErrInvalidHeader
	}
	if !bytes.Equal(header, MagicHeader) {
		return SetInfo{}, ErrInvalidHeader
	}

	// 2. Read Footer (at end of file)
	stat, err := f.Stat()
	if err != nil {
		return SetInfo{}, err
	}
	if stat.Size() < int64(len(MagicHeader))+footerSize {
		return SetInfo{}, fmt.Errorf("%w: file too small", ErrCorrupt)
	}

	footer := make([]byte, footerSize)
	if _, err := f.ReadAt(footer, stat.Size()-footerSize); err != nil {
		return SetInfo{}, err
	}

	return SetInfo{
		Count:      int(binary.LittleEndian.Uint32(footer[0:4])),
		MinSavedAt: int64(binary.LittleEndian.Uint64(footer[4:12])),
		MaxSavedAt: int64(binary.LittleEndian.Uint64(footer[12:20])),
	}, nil
}

// readAndDecompress reads a compressed block (size + data) and decompresses it.
// The block size is checked against the bytes left in r before allocating.
func (sr *SetReader) readAndDecompress(r *io.SectionReader) ([]byte, error) {
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, err
	}

	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	if int64(size) > r.Size()-pos {
		return nil, fmt.Errorf("block of %d bytes exceeds %d remaining", size, r.Size()-pos)
	}

	compressed := make([]byte, size)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, err
	}

	return sr.decoder.DecodeAll(compressed, nil)
}

func decodeRecord(data []byte) (Record, error) {
	buf := bytes.NewReader(data)
	fields := make([][]byte, 5)
	for i := range fields {
		var length uint32
		if err := binary.Read(buf, binary.LittleEndian, &length); err != nil {
			return Record{}, err
		}
		if int64(length) > int64(buf.Len()) {
			return Record{}, io.ErrUnexpectedEOF
		}
		fields[i] = make([]byte, length)
		if _, err := io.ReadFull(buf, fields[i]); err != nil {
			return Record{}, err
		}
	}

	var savedAt int64
	if err := binary.Read(buf, binary.LittleEndian, &savedAt); err != nil {
		return Record{}, err
	}

	return Record{
		ID:         string(fields[0]),
		Name:       string(fields[1]),
		Expression: string(fields[2]),
		Digest:     string(fields[3]),
		Filter:     fields[4],
		SavedAt:    savedAt,
	}, nil
}
