package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"stockdash/internal/domain"
)

// ErrInvalidData reports a price file that fails validation as a whole.
var ErrInvalidData = errors.New("invalid price data")

// csvColumns are the required header names of a price CSV.
var csvColumns = []string{"#", "name", "asof", "volume", "close_usd", "sector_level1", "sector_level2"}

// LoadCSVFile reads a price CSV from path. See LoadCSV.
func LoadCSVFile(path string, log *slog.Logger) ([]domain.PricePoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening price csv: %w", err)
	}
	defer f.Close()
	return LoadCSV(f, log)
}

// LoadCSV parses price rows in file order. Every required column must be
// present in the header. Rows whose volume or close is not a number are
// dropped with a warning; a negative volume or close, a missing name, or an
// unparsable date rejects the whole file.
func LoadCSV(r io.Reader, log *slog.Logger) ([]domain.PricePoint, error) {
	if log == nil {
		log = slog.Default()
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	var missing []string
	for _, c := range csvColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns: %v", ErrInvalidData, missing)
	}

	var (
		points  []domain.PricePoint
		dropped int
		line    = 1
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("reading csv line %d: %w", line, err)
		}
		field := func(name string) string {
			if i := idx[name]; i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}

		name := field("name")
		if name == "" {
			return nil, fmt.Errorf("%w: line %d: missing stock name", ErrInvalidData, line)
		}
		asof, err := domain.ParseDate(field("asof"))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidData, line, err)
		}

		closeUSD, cerr := strconv.ParseFloat(field("close_usd"), 64)
		volume, verr := parseVolume(field("volume"))
		if cerr != nil || verr != nil {
			dropped++
			continue
		}
		if volume < 0 {
			return nil, fmt.Errorf("%w: line %d: negative volume", ErrInvalidData, line)
		}
		if closeUSD < 0 {
			return nil, fmt.Errorf("%w: line %d: negative price", ErrInvalidData, line)
		}

		id, _ := strconv.ParseInt(field("#"), 10, 64)
		points = append(points, domain.PricePoint{
			ID:           id,
			Name:         name,
			AsOf:         asof,
			Volume:       volume,
			CloseUSD:     closeUSD,
			SectorLevel1: field("sector_level1"),
			SectorLevel2: field("sector_level2"),
		})
	}

	if dropped > 0 {
		log.Warn("dropping rows with invalid numerical values", "rows", dropped)
	}
	return points, nil
}

// parseVolume accepts integral values, including ones written as floats
// such as "1200.0".
func parseVolume(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
