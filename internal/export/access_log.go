// Package export renders the request audit log as an xlsx workbook.
package export

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Field names of one audit line. The HTTP layer writes them, the exporter reads them.
const (
	FieldIP     = "ip"
	FieldMethod = "method"
	FieldURI    = "uri"
	FieldStatus = "status"
	FieldParams = "params"
)

const (
	sheetReadme      = "readme"
	sheetAccess      = "access"
	sheetLog         = "log"
	sheetReservation = "reservation"
	sheetRoom        = "room"
)

var (
	dataSheets = []string{sheetAccess, sheetLog, sheetReservation, sheetRoom}
	headers    = []string{"TIMESTAMP", "IP", "METHOD", "RESPONSE", "PARAMETER"}

	readme = []string{
		"Seminar room reservation system request log",
		"",
		"Each sheet lists requests of one area: admin access, log downloads, reservations and rooms.",
		"",
		"TIMESTAMP: when the request was handled.",
		"IP: client address.",
		"METHOD: kind of request.",
		"   GET: read data (room list, log download).",
		"   POST: create data (room, reservation, admin login).",
		"   DELETE: remove data (room, reservation cancel).",
		"   PATCH: change data (room update).",
		"RESPONSE: HTTP status returned.",
		"   2XX: success",
		"   4XX: client error",
		"   5XX: server error",
		"PARAMETER: request parameters with passwords removed.",
	}
)

// Entry is one parsed audit line.
type Entry struct {
	Time   time.Time `json:"time"`
	IP     string    `json:"ip"`
	Method string    `json:"method"`
	URI    string    `json:"uri"`
	Status int       `json:"status"`
	Params string    `json:"params"`
}

// Sheet returns the workbook sheet the entry belongs to, or "" when the URI
// matches none. Checks run in order, so /api/admin/access lands in access
// even though it also contains "admin".
func (e Entry) Sheet() string {
	switch {
	case e.URI == "":
		return ""
	case strings.Contains(e.URI, "access"):
		return sheetAccess
	case strings.Contains(e.URI, "log"):
		return sheetLog
	case strings.Contains(e.URI, "reservation"):
		return sheetReservation
	case strings.Contains(e.URI, "room"):
		return sheetRoom
	}
	return ""
}

// AccessLogExporter reads the JSON-lines audit file at path.
type AccessLogExporter struct {
	path   string
	loc    *time.Location
	logger *zerolog.Logger
}

func NewAccessLogExporter(path string, loc *time.Location, logger *zerolog.Logger) *AccessLogExporter {
	if loc == nil {
		loc = time.Local
	}
	return &AccessLogExporter{path: path, loc: loc, logger: logger}
}

// Export writes the workbook to w. A missing log file yields a workbook
// with headers only.
func (e *AccessLogExporter) Export(ctx context.Context, w io.Writer) error {
	entries, err := e.readEntries(ctx)
	if err != nil {
		return err
	}

	f, err := e.build(entries)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func (e *AccessLogExporter) readEntries(ctx context.Context) ([]Entry, error) {
	file, err := os.Open(e.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error opening access log: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			e.logger.Warn().Err(err).Msg("Skipping malformed access log line")
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading access log: %w", err)
	}
	return entries, nil
}

func (e *AccessLogExporter) build(entries []Entry) (*excelize.File, error) {
	f := excelize.NewFile()

	if _, err := f.NewSheet(sheetReadme); err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	for i, line := range readme {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		_ = f.SetCellValue(sheetReadme, cell, line)
	}
	_ = f.SetColWidth(sheetReadme, "A", "A", 90)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	nextRow := make(map[string]int, len(dataSheets))
	for _, name := range dataSheets {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("error creating sheet: %w", err)
		}
		for col, title := range headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			_ = f.SetCellValue(name, cell, title)
			_ = f.SetCellStyle(name, cell, cell, headerStyle)
		}
		_ = f.SetColWidth(name, "A", "A", 22)
		_ = f.SetColWidth(name, "B", "D", 14)
		_ = f.SetColWidth(name, "E", "E", 80)
		nextRow[name] = 2
	}

	for _, entry := range entries {
		sheet := entry.Sheet()
		if sheet == "" {
			continue
		}
		row := nextRow[sheet]
		values := []any{
			entry.Time.In(e.loc).Format("2006-01-02 15:04:05"),
			entry.IP,
			entry.Method,
			strconv.Itoa(entry.Status),
			entry.Params,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		nextRow[sheet] = row + 1
	}

	_ = f.DeleteSheet("Sheet1")
	return f, nil
}
