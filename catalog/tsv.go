package catalog

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/giygas/anemia-api/catalog/entities"
	"github.com/giygas/anemia-api/logging"
	"golang.org/x/text/encoding/charmap"
)

// decodeCatalog returns a UTF-8 reader over raw file content. Files exported
// from spreadsheets are often ISO-8859-1.
func decodeCatalog(content []byte) io.Reader {
	if utf8.Valid(content) {
		return bytes.NewReader(content)
	}
	return charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(content))
}

// skipStats counts the lines a parser ignored
type skipStats struct {
	lines          int
	emptyLines     int
	missingColumns int
	formatErrors   int
}

func (s skipStats) log(file string, parsed int) {
	if s.emptyLines > 0 || s.missingColumns > 0 || s.formatErrors > 0 {
		logging.Info(file+" skip statistics",
			"empty_lines", s.emptyLines,
			"missing_columns", s.missingColumns,
			"format_errors", s.formatErrors,
			"total_lines", s.lines,
			"records_parsed", parsed)
	}
}

// scanRecords calls fn with the fields of every data line. Comment lines
// start with '#'.
func scanRecords(r io.Reader, minColumns int, stats *skipStats, fn func(fields []string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0), 1*1024*1024)

	for scanner.Scan() {
		stats.lines++
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			stats.emptyLines++
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < minColumns {
			stats.missingColumns++
			continue
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		if err := fn(fields); err != nil {
			stats.formatErrors++
			logging.Debug("Skipping catalog line", "line", stats.lines, "error", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}
	return nil
}

// parseDecimal accepts both "12.5" and "12,5"
func parseDecimal(value string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
}

func parseSupplements(r io.Reader) ([]entities.Supplement, error) {
	var stats skipStats
	var records []entities.Supplement

	err := scanRecords(r, 5, &stats, func(fields []string) error {
		if fields[0] == "" {
			return fmt.Errorf("missing supplement id")
		}
		formulation, err := entities.ParseFormulation(fields[2])
		if err != nil {
			return err
		}
		iron, err := parseDecimal(fields[3])
		if err != nil {
			return fmt.Errorf("invalid elemental iron %q: %w", fields[3], err)
		}
		content, err := parseDecimal(fields[4])
		if err != nil {
			return fmt.Errorf("invalid container content %q: %w", fields[4], err)
		}

		records = append(records, entities.Supplement{
			ID:                   fields[0],
			Name:                 fields[1],
			Formulation:          formulation,
			ElementalIronPerUnit: iron,
			ContainerContent:     content,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", SupplementsFile, err)
	}

	stats.log(SupplementsFile, len(records))
	return records, nil
}

func parseGuidelines(r io.Reader) ([]entities.DoseGuideline, error) {
	var stats skipStats
	var records []entities.DoseGuideline

	err := scanRecords(r, 4, &stats, func(fields []string) error {
		from, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("invalid from age %q: %w", fields[1], err)
		}
		to, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("invalid to age %q: %w", fields[2], err)
		}
		dose, err := parseDecimal(fields[3])
		if err != nil {
			return fmt.Errorf("invalid dose %q: %w", fields[3], err)
		}

		records = append(records, entities.DoseGuideline{
			SupplementID:            fields[0],
			FromAgeDays:             from,
			ToAgeDays:               to,
			DoseAmountMgPerKgPerDay: dose,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", GuidelinesFile, err)
	}

	stats.log(GuidelinesFile, len(records))
	return records, nil
}

// parseLocations derives the altitude adjustment when the column is empty
func parseLocations(r io.Reader) ([]entities.Location, error) {
	var stats skipStats
	var records []entities.Location

	err := scanRecords(r, 4, &stats, func(fields []string) error {
		if fields[2] == "" {
			return fmt.Errorf("missing district")
		}
		altitude, err := strconv.Atoi(fields[3])
		if err != nil {
			return fmt.Errorf("invalid altitude %q: %w", fields[3], err)
		}

		adjustment := AltitudeAdjustment(altitude)
		if len(fields) > 4 && fields[4] != "" {
			adjustment, err = parseDecimal(fields[4])
			if err != nil {
				return fmt.Errorf("invalid altitude adjustment %q: %w", fields[4], err)
			}
		}

		records = append(records, entities.Location{
			Department:         fields[0],
			Province:           fields[1],
			District:           fields[2],
			AltitudeMeters:     altitude,
			AltitudeAdjustment: adjustment,
			NameNormalized:     NormalizeName(fields[2]),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", LocationsFile, err)
	}

	stats.log(LocationsFile, len(records))
	return records, nil
}
