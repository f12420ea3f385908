// Package csvlog is the append-only flat-file lead sink.
package csvlog

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/znz-systems/leadform/internal/models"
)

// Header is the first row of every lead file.
var Header = []string{"id", "name", "email", "message", "created_at"}

// Log appends lead rows to a CSV file. Rows are never rewritten.
type Log struct {
	path string
}

// New returns a Log writing to path.
func New(path string) *Log {
	return &Log{path: path}
}

// EnsureHeader creates the file with its header row if it does not exist yet.
// An existing file is left untouched.
func (l *Log) EnsureHeader() error {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.Wrap(err, "creating csv directory")
		}
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return errors.Wrap(err, "creating csv file")
	}
	defer f.Close()

	if _, err := f.Write(encode(Header)); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	return nil
}

// Append writes one lead row with a single write call.
func (l *Log) Append(lead *models.Lead) error {
	row := encode([]string{
		strconv.FormatInt(lead.ID, 10),
		lead.Name,
		lead.Email,
		lead.Message,
		lead.CreatedAt,
	})

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o640)
	if err != nil {
		return errors.Wrap(err, "opening csv file")
	}
	if _, err := f.Write(row); err != nil {
		f.Close()
		return errors.Wrap(err, "appending csv row")
	}
	return errors.Wrap(f.Close(), "closing csv file")
}

// ReadAll returns every data row, skipping the header.
func (l *Log) ReadAll() ([]models.Lead, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, errors.Wrap(err, "opening csv file")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "reading csv file")
	}

	var leads []models.Lead
	for i, rec := range records {
		if i == 0 && rec[0] == Header[0] {
			continue
		}
		id, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "csv row %d: bad id", i+1)
		}
		leads = append(leads, models.Lead{
			ID:        id,
			Name:      rec[1],
			Email:     rec[2],
			Message:   rec[3],
			CreatedAt: rec[4],
		})
	}
	return leads, nil
}

// encode renders one CSV record with CRLF line endings.
func encode(record []string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	// Writing to a bytes.Buffer cannot fail.
	_ = w.Write(record)
	w.Flush()
	return buf.Bytes()
}
