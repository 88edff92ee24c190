package excel

import (
	"context"
	"strconv"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/rrdoubles/internal/config"
	"github.com/derekprior/rrdoubles/internal/schedule"
	"github.com/derekprior/rrdoubles/internal/strategy"
	"github.com/derekprior/rrdoubles/internal/testutil"
)

func testData(t *testing.T) (*config.Config, *schedule.Result) {
	t.Helper()
	cfg := testutil.NewConfig(t, 3, 2, "1+2", "3+4")
	start := config.ClockTime{Hour: 10}
	cfg.StartTime = &start
	cfg.Teams[0].Name = "Falcons"

	tasks, err := (&strategy.RoundRobin{}).GenerateTasks(cfg)
	if err != nil {
		t.Fatalf("GenerateTasks() error: %v", err)
	}
	result, err := schedule.Schedule(context.Background(), cfg, tasks)
	if err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}
	return cfg, result
}

func TestGenerateWorkbook(t *testing.T) {
	cfg, result := testData(t)

	f, err := Generate(cfg, result)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	t.Run("has fixed sheets", func(t *testing.T) {
		for _, sheet := range []string{MasterSheet, MatchesSheet, SummarySheet} {
			idx, err := f.GetSheetIndex(sheet)
			if err != nil {
				t.Fatalf("GetSheetIndex error: %v", err)
			}
			if idx < 0 {
				t.Errorf("%s sheet not found", sheet)
			}
		}
	})

	t.Run("master sheet has a column per court", func(t *testing.T) {
		for cell, want := range map[string]string{"A1": "Slot", "C1": "Time", "D1": "Court 1", "E1": "Court 2"} {
			val, _ := f.GetCellValue(MasterSheet, cell)
			if val != want {
				t.Errorf("%s = %q, want %q", cell, val, want)
			}
		}
	})

	t.Run("master sheet has a row per slot", func(t *testing.T) {
		rows, _ := f.GetRows(MasterSheet)
		if got := len(rows) - 1; got != result.Summary.TotalSlots {
			t.Errorf("got %d slot rows, want %d", got, result.Summary.TotalSlots)
		}
		if rows[1][0] != "T1" || rows[1][2] != "10:00-10:30" {
			t.Errorf("first slot row = %v", rows[1])
		}
	})

	t.Run("master sheet cells name the match", func(t *testing.T) {
		first := result.Assignments[0]
		val, _ := f.GetCellValue(MasterSheet, cellRef(first.Court+3, first.Slot+1))
		if want := matchCell(first.Task); val != want {
			t.Errorf("cell = %q, want %q", val, want)
		}
	})

	t.Run("matches sheet lists every match", func(t *testing.T) {
		rows, _ := f.GetRows(MatchesSheet)
		if got := len(rows) - 1; got != len(result.Matches) {
			t.Errorf("got %d match rows, want %d", got, len(result.Matches))
		}
		if rows[1][10] != "pending" {
			t.Errorf("status = %q, want pending", rows[1][10])
		}
	})

	t.Run("summary sheet has totals", func(t *testing.T) {
		val, _ := f.GetCellValue(SummarySheet, "B1")
		if val != "Test Cup" {
			t.Errorf("B1 = %q, want Test Cup", val)
		}
		val, _ = f.GetCellValue(SummarySheet, "B5")
		if val != "6" {
			t.Errorf("total matches = %q, want 6", val)
		}
	})

	t.Run("has per-team sheets", func(t *testing.T) {
		for _, team := range []string{"A", "B", "C"} {
			idx, err := f.GetSheetIndex(TeamSheet(team))
			if err != nil {
				t.Fatalf("GetSheetIndex error: %v", err)
			}
			if idx < 0 {
				t.Errorf("sheet for %s not found", team)
			}
		}
	})

	t.Run("team sheet has correct matches", func(t *testing.T) {
		rows, _ := f.GetRows(TeamSheet("B"))
		// two opponents, two formations each
		if got := len(rows) - 1; got != 4 {
			t.Errorf("team B sheet has %d matches, want 4", got)
		}
		for _, row := range rows[1:] {
			if row[3] == "Falcons" {
				return
			}
		}
		t.Error("team B sheet never shows the Falcons as opponent")
	})

	t.Run("default Sheet1 removed", func(t *testing.T) {
		idx, _ := f.GetSheetIndex("Sheet1")
		if idx >= 0 {
			t.Error("Sheet1 should be removed")
		}
	})
}

func TestWriteAndRead(t *testing.T) {
	cfg, result := testData(t)

	f, err := Generate(cfg, result)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	path := t.TempDir() + "/test.xlsx"
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}

	f2, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	defer f2.Close()

	got, err := ReadAssignments(f2)
	if err != nil {
		t.Fatalf("ReadAssignments() error: %v", err)
	}
	entries, err := ReadEntries(f2)
	if err != nil {
		t.Fatalf("ReadEntries() error: %v", err)
	}
	for _, e := range entries {
		if e.Status != schedule.StatusPending {
			t.Errorf("row %d status = %q, want pending", e.Row, e.Status)
		}
	}
	if len(got) != len(result.Assignments) {
		t.Fatalf("read %d assignments, want %d", len(got), len(result.Assignments))
	}
	for i, want := range result.Assignments {
		g := got[i]
		if g.Slot != want.Slot || g.Court != want.Court {
			t.Errorf("row %d at T%d court %d, want T%d court %d", i+2, g.Slot, g.Court, want.Slot, want.Court)
		}
		if g.Task.TeamA != want.Task.TeamA || g.Task.TeamB != want.Task.TeamB || g.Task.Formation != want.Task.Formation {
			t.Errorf("row %d = %s, want %s", i+2, g.Task, want.Task)
		}
		if g.Task.Players() != want.Task.Players() {
			t.Errorf("row %d players = %v, want %v", i+2, g.Task.Players(), want.Task.Players())
		}
	}
}

func TestReadEntriesRejectsBadRows(t *testing.T) {
	tests := []struct {
		name  string
		slot  any
		court any
		teamA string
	}{
		{"non-numeric slot", "soon", 1, "A1, A2"},
		{"zero court", 1, 0, "A1, A2"},
		{"one player", 1, 1, "A1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := excelize.NewFile()
			defer f.Close()
			f.NewSheet(MatchesSheet)
			for i, h := range matchHeaders {
				f.SetCellValue(MatchesSheet, cellRef(i+1, 1), h)
			}
			for i, v := range []any{1, tt.slot, 1, "", tt.court, "A", "B", "1+2", tt.teamA, "B1, B2", "pending"} {
				f.SetCellValue(MatchesSheet, cellRef(i+1, 2), v)
			}
			if _, err := ReadEntries(f); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestUpdateTeamSheets(t *testing.T) {
	cfg, result := testData(t)

	f, err := Generate(cfg, result)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	// Hand edit: move the first match to a fresh slot at the end.
	last := result.Summary.TotalSlots + 1
	f.SetCellValue(MatchesSheet, "B2", last)
	f.DeleteSheet(TeamSheet("C"))

	path := t.TempDir() + "/edited.xlsx"
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}

	if err := UpdateTeamSheets(path, cfg); err != nil {
		t.Fatalf("UpdateTeamSheets() error: %v", err)
	}

	f2, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	defer f2.Close()

	idx, _ := f2.GetSheetIndex(TeamSheet("C"))
	if idx < 0 {
		t.Fatal("team C sheet was not rebuilt")
	}

	moved := result.Assignments[0].Task
	rows, _ := f2.GetRows(TeamSheet(moved.TeamA))
	lastRow := rows[len(rows)-1]
	if want := "T" + strconv.Itoa(last); lastRow[0] != want {
		t.Errorf("last team %s row slot = %q, want %q", moved.TeamA, lastRow[0], want)
	}
}

func TestColLetter(t *testing.T) {
	for col, want := range map[int]string{1: "A", 4: "D", 26: "Z", 27: "AA", 30: "AD"} {
		if got := colLetter(col); got != want {
			t.Errorf("colLetter(%d) = %q, want %q", col, got, want)
		}
	}
}
