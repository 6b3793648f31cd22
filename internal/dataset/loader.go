package dataset

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	xlsx "github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/anrid/xls"

	"github.com/mr1hm/emdat-stats/internal/models"
)

// HeaderRow is the zero-based row holding column names in EMDAT exports.
// The rows above it are title and licence text.
const HeaderRow = 6

// Columns maps EMDAT header names to frame columns. Anything else is dropped.
var Columns = map[string]string{
	"Year":                            ColYear,
	"Country":                         ColCountry,
	"Dis No":                          ColDisNo,
	"Total Deaths":                    string(models.StatDeaths),
	"Disaster Group":                  ColDisasterGroup,
	"Disaster Type":                   ColDisasterType,
	"Disaster Subgroup":               ColDisasterSubgroup,
	"Disaster Subtype":                ColDisasterSubtype,
	"Location":                        ColLocation,
	"Latitude":                        ColLatitude,
	"Longitude":                       ColLongitude,
	"Event Name":                      ColEventName,
	"No Injured":                      string(models.StatInjured),
	"No Affected":                     string(models.StatAffected),
	"No Homeless":                     string(models.StatHomeless),
	"Total Affected":                  string(models.StatTotalAffected),
	"Reconstruction Costs ('000 US$)": string(models.StatReconstructionCosts),
	"Insured Damages ('000 US$)":      string(models.StatInsuredDamages),
	"Total Damages ('000 US$)":        string(models.StatTotalDamages),
}

var requiredColumns = []string{ColYear, ColCountry, ColDisNo, ColDisasterType}

// Load reads an EMDAT export. ".xls" files go through the legacy BIFF reader,
// everything else is treated as xlsx.
func Load(path string) (*Dataset, error) {
	var (
		rows [][]string
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".xls") {
		rows, err = readXLS(path)
	} else {
		rows, err = readXLSX(path)
	}
	if err != nil {
		return nil, err
	}

	events, err := parseRows(rows)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", path, err)
	}

	d, err := FromEvents(events)
	if err != nil {
		return nil, err
	}

	slog.Info("dataset loaded",
		"path", path,
		"rows", d.Len(),
		"events", d.NEvents(),
		"countries", len(d.countries),
		"disaster_types", len(d.disasterTypes),
	)
	return d, nil
}

func readXLSX(path string) ([][]string, error) {
	wb, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("error opening xlsx %s: %w", path, err)
	}

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx %s has no sheets", path)
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("error reading rows of sheet %q: %w", sheets[0], err)
	}
	slog.Debug("read xlsx", "path", path, "sheet", sheets[0], "rows", len(rows))
	return rows, nil
}

func readXLS(path string) ([][]string, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("error opening xls %s: %w", path, err)
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("xls %s has no sheets", path)
	}

	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		var cols []string
		for j := 0; j <= row.LastCol(); j++ {
			cols = append(cols, row.Col(j))
		}
		rows = append(rows, cols)
	}
	slog.Debug("read xls", "path", path, "sheet", sheet.Name, "rows", len(rows))
	return rows, nil
}

// parseRows maps a raw sheet onto events. Errors name the 1-based
// spreadsheet row so they can be found in the source file.
func parseRows(rows [][]string) ([]models.Event, error) {
	if len(rows) <= HeaderRow {
		return nil, fmt.Errorf("%w: sheet has %d rows, header expected on row %d", models.ErrInvalidField, len(rows), HeaderRow+1)
	}

	pos := make(map[string]int)
	for i, name := range rows[HeaderRow] {
		if col, ok := Columns[strings.TrimSpace(name)]; ok {
			pos[col] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := pos[col]; !ok {
			return nil, fmt.Errorf("%w: column %q not found in header", models.ErrInvalidField, col)
		}
	}

	cell := func(row []string, col string) string {
		i, ok := pos[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	events := make([]models.Event, 0, len(rows)-HeaderRow-1)
	for i := HeaderRow + 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}

		year, err := parseYear(cell(row, ColYear))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		e := models.Event{
			Year:             year,
			Country:          cell(row, ColCountry),
			DisNo:            cell(row, ColDisNo),
			DisasterGroup:    cell(row, ColDisasterGroup),
			DisasterSubgroup: cell(row, ColDisasterSubgroup),
			DisasterType:     cell(row, ColDisasterType),
			DisasterSubtype:  cell(row, ColDisasterSubtype),
			Location:         cell(row, ColLocation),
			EventName:        cell(row, ColEventName),
			Latitude:         parseNumber(cell(row, ColLatitude)),
			Longitude:        parseNumber(cell(row, ColLongitude)),
		}
		for _, s := range models.Statistics {
			e.SetStat(s, parseNumber(cell(row, string(s))))
		}
		if err := validate(&e); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		events = append(events, e)
	}
	return events, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseYear(s string) (int, error) {
	if y, err := strconv.Atoi(s); err == nil {
		return y, nil
	}
	// xls stores every number as a double, so years can come back as "2001.0".
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad year %q", models.ErrInvalidField, s)
	}
	return int(f), nil
}

// parseNumber returns nil for empty or unparsable cells.
func parseNumber(s string) *float64 {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
