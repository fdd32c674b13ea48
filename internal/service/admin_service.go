package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"io"
	"time"

	"seminar/internal/domain"
)

// AccessLogExporter renders the request audit log into a spreadsheet.
type AccessLogExporter interface {
	Export(ctx context.Context, w io.Writer) error
}

type AdminService struct {
	password [sha256.Size]byte
	exporter AccessLogExporter
	now      func() time.Time
}

func NewAdminService(password string, exporter AccessLogExporter) *AdminService {
	return &AdminService{
		password: sha256.Sum256([]byte(password)),
		exporter: exporter,
		now:      time.Now,
	}
}

// Authenticate compares the candidate with the configured password in
// constant time.
func (s *AdminService) Authenticate(candidate string) error {
	sum := sha256.Sum256([]byte(candidate))
	if subtle.ConstantTimeCompare(sum[:], s.password[:]) != 1 {
		return domain.ErrUnauthorized
	}
	return nil
}

// ExportAccessLog writes the workbook to w and returns the download file name.
func (s *AdminService) ExportAccessLog(ctx context.Context, w io.Writer) (string, error) {
	name := "log_" + s.now().Format("20060102_150405") + ".xlsx"
	if err := s.exporter.Export(ctx, w); err != nil {
		return "", err
	}
	return name, nil
}
