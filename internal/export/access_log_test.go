package export

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestEntrySheet(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"/api/admin/access", "access"},
		{"/api/admin/log", "log"},
		{"/api/reservation", "reservation"},
		{"/api/admin/reservation", "reservation"},
		{"/api/admin/room/3", "room"},
		{"/api/room", "room"},
		{"/healthz", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, Entry{URI: tt.uri}.Sheet())
		})
	}
}

func TestAccessLogExporter_Export(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	lines := `{"level":"info","ip":"10.0.0.1","method":"POST","uri":"/api/reservation","status":201,"params":"{\"roomId\":1}","time":"2024-03-01T01:00:00Z"}
{"level":"info","ip":"10.0.0.2","method":"POST","uri":"/api/admin/access","status":401,"params":"{\"password\":\"***\"}","time":"2024-03-01T01:05:00Z"}
not json
{"level":"info","ip":"10.0.0.3","method":"GET","uri":"/healthz","status":200,"time":"2024-03-01T01:06:00Z"}
{"level":"info","ip":"10.0.0.1","method":"DELETE","uri":"/api/reservation","status":204,"params":"{\"reservationId\":4}","time":"2024-03-01T01:10:00Z"}
`
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))

	logger := zerolog.New(io.Discard)
	exp := NewAccessLogExporter(path, time.UTC, &logger)

	var buf bytes.Buffer
	require.NoError(t, exp.Export(context.Background(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"readme", "access", "log", "reservation", "room"}, f.GetSheetList())

	rows, err := f.GetRows("reservation")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"TIMESTAMP", "IP", "METHOD", "RESPONSE", "PARAMETER"}, rows[0])
	assert.Equal(t, []string{"2024-03-01 01:00:00", "10.0.0.1", "POST", "201", `{"roomId":1}`}, rows[1])
	assert.Equal(t, "DELETE", rows[2][2])

	rows, err = f.GetRows("access")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "401", rows[1][3])

	rows, err = f.GetRows("room")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestAccessLogExporter_MissingFile(t *testing.T) {
	logger := zerolog.New(io.Discard)
	exp := NewAccessLogExporter(filepath.Join(t.TempDir(), "missing.log"), nil, &logger)

	var buf bytes.Buffer
	require.NoError(t, exp.Export(context.Background(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("log")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
