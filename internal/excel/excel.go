package excel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/rrdoubles/internal/config"
	"github.com/derekprior/rrdoubles/internal/schedule"
	"github.com/derekprior/rrdoubles/internal/strategy"
)

const (
	MasterSheet  = "Master Schedule"
	MatchesSheet = "Matches"
	SummarySheet = "Summary"
)

var matchHeaders = []string{
	"#", "Slot", "Round", "Time", "Court", "Team A", "Team B",
	"Formation", "Team A Players", "Team B Players", "Status",
}

// TeamSheet returns the name of a team's sheet.
func TeamSheet(code string) string {
	return "Team " + code
}

// Generate creates a workbook with the master grid, the match list, a
// summary and one sheet per team.
func Generate(cfg *config.Config, result *schedule.Result) (*excelize.File, error) {
	f := excelize.NewFile()

	f.SetDefaultFont("Arial")

	slots := schedule.GenerateSlots(cfg, result.Summary.TotalSlots)

	if err := writeMasterSheet(f, cfg, result, slots); err != nil {
		return nil, fmt.Errorf("writing master sheet: %w", err)
	}

	if err := writeMatchesSheet(f, result, slots); err != nil {
		return nil, fmt.Errorf("writing matches sheet: %w", err)
	}

	if err := writeSummarySheet(f, cfg, result); err != nil {
		return nil, fmt.Errorf("writing summary sheet: %w", err)
	}

	if err := writeTeamSheets(f, cfg, result.Assignments, slots); err != nil {
		return nil, fmt.Errorf("writing team sheets: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

// Entry is one row of the Matches sheet.
type Entry struct {
	Row    int
	Status schedule.Status
	schedule.Assignment
}

// ReadEntries parses the Matches sheet. Blank rows are skipped.
func ReadEntries(f *excelize.File) ([]Entry, error) {
	rows, err := f.GetRows(MatchesSheet)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", MatchesSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", MatchesSheet)
	}

	var entries []Entry
	for i, row := range rows {
		if i == 0 || isBlank(row) {
			continue
		}
		rowNum := i + 1
		cell := func(col int) string {
			if col < len(row) {
				return strings.TrimSpace(row[col])
			}
			return ""
		}

		slot, err := strconv.Atoi(cell(1))
		if err != nil || slot < 1 {
			return nil, fmt.Errorf("row %d: invalid slot %q", rowNum, cell(1))
		}
		court, err := strconv.Atoi(cell(4))
		if err != nil || court < 1 {
			return nil, fmt.Errorf("row %d: invalid court %q", rowNum, cell(4))
		}
		a, err := parsePlayers(cell(8))
		if err != nil {
			return nil, fmt.Errorf("row %d: team A players: %w", rowNum, err)
		}
		b, err := parsePlayers(cell(9))
		if err != nil {
			return nil, fmt.Errorf("row %d: team B players: %w", rowNum, err)
		}

		entries = append(entries, Entry{
			Row:    rowNum,
			Status: schedule.Status(cell(10)),
			Assignment: schedule.Assignment{
				Task: strategy.Task{
					Index:        len(entries),
					TeamA:        cell(5),
					TeamB:        cell(6),
					Formation:    cell(7),
					TeamAPlayers: a,
					TeamBPlayers: b,
				},
				Slot:  slot,
				Court: court,
			},
		})
	}
	return entries, nil
}

// ReadAssignments parses the Matches sheet into assignments.
func ReadAssignments(f *excelize.File) ([]schedule.Assignment, error) {
	entries, err := ReadEntries(f)
	if err != nil {
		return nil, err
	}
	assignments := make([]schedule.Assignment, len(entries))
	for i, e := range entries {
		assignments[i] = e.Assignment
	}
	return assignments, nil
}

// UpdateTeamSheets rebuilds the team sheets from the (possibly hand-edited)
// Matches sheet and saves the workbook in place.
func UpdateTeamSheets(path string, cfg *config.Config) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	assignments, err := ReadAssignments(f)
	if err != nil {
		return err
	}

	// Rebuild through the assembler so rows come out in slot order.
	result := schedule.NewAssembler().Assemble(cfg, assignments)
	slots := schedule.GenerateSlots(cfg, result.Summary.TotalSlots)

	for _, sheet := range f.GetSheetList() {
		if strings.HasPrefix(sheet, "Team ") {
			if err := f.DeleteSheet(sheet); err != nil {
				return fmt.Errorf("removing %s: %w", sheet, err)
			}
		}
	}
	if err := writeTeamSheets(f, cfg, result.Assignments, slots); err != nil {
		return fmt.Errorf("writing team sheets: %w", err)
	}
	return f.Save()
}

func parsePlayers(cell string) ([2]string, error) {
	parts := strings.Split(cell, ",")
	if len(parts) != 2 {
		return [2]string{}, fmt.Errorf("want 2 players, got %q", cell)
	}
	a, b := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if a == "" || b == "" {
		return [2]string{}, fmt.Errorf("want 2 players, got %q", cell)
	}
	return [2]string{a, b}, nil
}

func formatPlayers(p [2]string) string {
	return p[0] + ", " + p[1]
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func slotTime(slots []schedule.Slot, slot int) string {
	if slot >= 1 && slot <= len(slots) {
		return slots[slot-1].TimeRange()
	}
	return ""
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 14, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	style, _ := headerStyle(f)
	if style != 0 {
		f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), style)
	}
}

func matchCell(t strategy.Task) string {
	return fmt.Sprintf("%s vs %s · %s", t.TeamA, t.TeamB, t.Formation)
}

func writeMasterSheet(f *excelize.File, cfg *config.Config, result *schedule.Result, slots []schedule.Slot) error {
	sheet := MasterSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"Slot", "Round", "Time"}
	for c := 1; c <= cfg.CourtCount; c++ {
		headers = append(headers, fmt.Sprintf("Court %d", c))
	}
	writeHeaders(f, sheet, headers)

	type slotCourt struct{ slot, court int }
	byCourt := make(map[slotCourt]schedule.Assignment)
	for _, a := range result.Assignments {
		byCourt[slotCourt{a.Slot, a.Court}] = a
	}

	courtStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 14, Family: "Arial"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for _, s := range slots {
		row := s.Index + 1
		f.SetCellValue(sheet, cellRef(1, row), fmt.Sprintf("T%d", s.Index))
		f.SetCellValue(sheet, cellRef(2, row), s.Round)
		f.SetCellValue(sheet, cellRef(3, row), s.TimeRange())

		for c := 1; c <= cfg.CourtCount; c++ {
			if a, ok := byCourt[slotCourt{s.Index, c}]; ok {
				f.SetCellValue(sheet, cellRef(c+3, row), matchCell(a.Task))
			}
		}
		if courtStyle != 0 {
			f.SetCellStyle(sheet, cellRef(4, row), cellRef(len(headers), row), courtStyle)
		}
	}

	f.SetColWidth(sheet, "A", "B", 8)
	f.SetColWidth(sheet, "C", "C", 14)
	for c := 1; c <= cfg.CourtCount; c++ {
		col := colLetter(c + 3)
		f.SetColWidth(sheet, col, col, 22)
	}

	// Idle courts get a light red fill.
	if len(slots) == 0 {
		return nil
	}
	lastRow := len(slots) + 1
	redFill, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
	})
	for c := 1; c <= cfg.CourtCount; c++ {
		col := colLetter(c + 3)
		cellRange := fmt.Sprintf("%s2:%s%d", col, col, lastRow)
		f.SetConditionalFormat(sheet, cellRange, []excelize.ConditionalFormatOptions{
			{
				Type:     "formula",
				Criteria: fmt.Sprintf("LEN(%s2)=0", col),
				Format:   &redFill,
			},
		})
	}

	return nil
}

func writeMatchesSheet(f *excelize.File, result *schedule.Result, slots []schedule.Slot) error {
	sheet := MatchesSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	writeHeaders(f, sheet, matchHeaders)

	for i, m := range result.Matches {
		row := i + 2
		values := []any{
			m.Number, m.Slot, m.Round, slotTime(slots, m.Slot), m.Court,
			m.TeamA, m.TeamB, m.Formation,
			formatPlayers(m.TeamAPlayers), formatPlayers(m.TeamBPlayers),
			string(m.Status),
		}
		for col, v := range values {
			f.SetCellValue(sheet, cellRef(col+1, row), v)
		}
	}

	widths := map[string]float64{"A": 6, "B": 6, "C": 7, "D": 14, "E": 7, "F": 9, "G": 9, "H": 11, "I": 16, "J": 16, "K": 10}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, cfg *config.Config, result *schedule.Result) error {
	sheet := SummarySheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	s := result.Summary
	rows := [][]any{
		{"Tournament", cfg.Name},
		{"Teams", cfg.TeamCount},
		{"Courts", cfg.CourtCount},
		{"Formations", strings.Join(cfg.Formations, ", ")},
		{"Total matches", s.TotalMatches},
		{"Total slots", s.TotalSlots},
		{"Total rounds", s.TotalRounds},
		{"Estimated duration", formatDuration(s.EstimatedDuration.Minutes())},
	}
	for i, r := range rows {
		f.SetCellValue(sheet, cellRef(1, i+1), r[0])
		f.SetCellValue(sheet, cellRef(2, i+1), r[1])
	}
	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if bold != 0 {
		f.SetCellStyle(sheet, "A1", cellRef(1, len(rows)), bold)
	}

	start := len(rows) + 2
	headers := []string{"Player", "Name", "Team", "Matches", "Max streak", "Max rest"}
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, start), h)
	}
	style, _ := headerStyle(f)
	if style != 0 {
		f.SetCellStyle(sheet, cellRef(1, start), cellRef(len(headers), start), style)
	}

	for i, p := range result.Players() {
		m := result.PlayerMetrics[p]
		row := start + 1 + i
		for col, v := range []any{p, cfg.PlayerName(p), m.Team, m.Matches, m.MaxStreak, m.MaxRest} {
			f.SetCellValue(sheet, cellRef(col+1, row), v)
		}
	}

	f.SetColWidth(sheet, "A", "A", 20)
	f.SetColWidth(sheet, "B", "B", 24)
	f.SetColWidth(sheet, "C", "F", 12)
	return nil
}

func writeTeamSheets(f *excelize.File, cfg *config.Config, assignments []schedule.Assignment, slots []schedule.Slot) error {
	for _, team := range cfg.TeamCodes() {
		sheet := TeamSheet(team)
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}

		headers := []string{"Slot", "Time", "Court", "Opponent", "Formation", "Players", "Opponent Players"}
		writeHeaders(f, sheet, headers)

		row := 2
		for _, a := range assignments {
			t := a.Task
			var opponent string
			var ours, theirs [2]string
			switch team {
			case t.TeamA:
				opponent, ours, theirs = t.TeamB, t.TeamAPlayers, t.TeamBPlayers
			case t.TeamB:
				opponent, ours, theirs = t.TeamA, t.TeamBPlayers, t.TeamAPlayers
			default:
				continue
			}
			values := []any{
				fmt.Sprintf("T%d", a.Slot), slotTime(slots, a.Slot), a.Court,
				cfg.TeamName(opponent), t.Formation,
				playerNames(cfg, ours), playerNames(cfg, theirs),
			}
			for col, v := range values {
				f.SetCellValue(sheet, cellRef(col+1, row), v)
			}
			row++
		}

		widths := map[string]float64{"A": 8, "B": 14, "C": 8, "D": 16, "E": 11, "F": 24, "G": 24}
		for col, w := range widths {
			f.SetColWidth(sheet, col, col, w)
		}
	}

	return nil
}

func playerNames(cfg *config.Config, p [2]string) string {
	return cfg.PlayerName(p[0]) + " & " + cfg.PlayerName(p[1])
}

func formatDuration(minutes float64) string {
	total := int(minutes + 0.5)
	return fmt.Sprintf("%dh %02dm", total/60, total%60)
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
