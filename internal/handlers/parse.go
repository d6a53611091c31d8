package handlers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type appError struct {
	status  int
	code    string
	message string
	details any
}

func (e *appError) Error() string { return e.message }

func newAppError(status int, code, message string, details any) *appError {
	return &appError{status: status, code: code, message: message, details: details}
}

type importUpload struct {
	Rows    []map[string]any
	Mapping map[string]string
	Name    string
}

// parseImportUpload reads a multipart upload: a required "file" part holding
// a CSV or XLSX export, plus an optional "options" part with a JSON body
// carrying an explicit column mapping.
func parseImportUpload(r *http.Request, maxFileBytes int64, maxRows int) (importUpload, error) {
	if err := r.ParseMultipartForm(maxFileBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return importUpload{}, newAppError(http.StatusRequestEntityTooLarge, "file_too_large", "Uploaded file exceeds the size limit", nil)
		}
		return importUpload{}, newAppError(http.StatusBadRequest, "invalid_multipart", "Malformed multipart request", nil)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return importUpload{}, newAppError(http.StatusBadRequest, "missing_file", "A file part is required", nil)
	}
	defer file.Close()

	if header.Size > maxFileBytes {
		return importUpload{}, newAppError(http.StatusRequestEntityTooLarge, "file_too_large", "Uploaded file exceeds the size limit", nil)
	}

	upload := importUpload{Name: header.Filename}
	if options := r.FormValue("options"); options != "" {
		var opts struct {
			Mapping map[string]string `json:"mapping"`
		}
		if err := json.Unmarshal([]byte(options), &opts); err != nil {
			return importUpload{}, newAppError(http.StatusBadRequest, "invalid_options", "Options part is not valid JSON", nil)
		}
		upload.Mapping = opts.Mapping
	}

	rows, err := parseTabularFile(file, header)
	if err != nil {
		var app *appError
		if errors.As(err, &app) {
			return importUpload{}, app
		}
		return importUpload{}, newAppError(http.StatusBadRequest, "invalid_file", fmt.Sprintf("Could not parse file: %v", err), nil)
	}
	if maxRows > 0 && len(rows) > maxRows {
		return importUpload{}, newAppError(http.StatusRequestEntityTooLarge, "too_many_rows", fmt.Sprintf("File has %d rows, the limit is %d", len(rows), maxRows), nil)
	}

	upload.Rows = rows
	return upload, nil
}

func parseTabularFile(file multipart.File, header *multipart.FileHeader) ([]map[string]any, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".csv", ".txt", "":
		return parseCSV(file)
	case ".xlsx", ".xls":
		return parseXLSX(file)
	default:
		return nil, newAppError(http.StatusUnsupportedMediaType, "unsupported_file_type", "Only CSV and XLSX files are supported", nil)
	}
}

func parseCSV(file io.Reader) ([]map[string]any, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return []map[string]any{}, nil
	}
	return rowsFromCells(records), nil
}

func parseXLSX(file io.Reader) ([]map[string]any, error) {
	workbook, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return []map[string]any{}, nil
	}
	records, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rowsFromCells(records), nil
}

// rowsFromCells pairs the first record with each following record. Short rows
// leave trailing columns absent; extra cells beyond the header are dropped.
func rowsFromCells(records [][]string) []map[string]any {
	if len(records) < 2 {
		return []map[string]any{}
	}
	headers := records[0]

	rows := make([]map[string]any, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]any, len(headers))
		empty := true
		for i, header := range headers {
			if header == "" {
				continue
			}
			if i < len(record) {
				row[header] = record[i]
				if strings.TrimSpace(record[i]) != "" {
					empty = false
				}
			}
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}
