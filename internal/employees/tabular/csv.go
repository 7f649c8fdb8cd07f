package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func readCSV(data []byte) ([][]string, []int, error) {
	if !utf8.Valid(data) {
		return nil, nil, fmt.Errorf("'utf-8' codec can't decode file content")
	}
	text := transform.NewReader(bytes.NewReader(data), unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	r := csv.NewReader(text)
	r.FieldsPerRecord = -1

	var (
		records [][]string
		lines   []int
	)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		line, _ := r.FieldPos(0)
		if len(records) > 0 && isBlank(record) {
			continue
		}
		records = append(records, record)
		lines = append(lines, line)
	}
	return records, lines, nil
}
