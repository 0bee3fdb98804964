package demonlistservice

import (
	"context"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	demonlistdomain "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/domain"
	demonlistevents "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/events"
	demonlistdb "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/infrastructure/repositories"
	"github.com/Black-And-White-Club/demonlist-tracker/app/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/xuri/excelize/v2"
)

const (
	levelsSheet    = "Levels"
	standingsSheet = "Standings"
)

// Columns recognised in an imported sheet. Any other non-empty header is a player.
var (
	nameHeaders    = []string{"name", "level"}
	creatorHeaders = []string{"creator", "author"}
	scoreHeaders   = []string{"difficulty", "difficulty_score", "score"}
	derivedHeaders = []string{"rank", "tier", "points", "point_value"}
)

// lockSuffix marks the column holding a player's locked points.
const lockSuffix = "_locked"

// ExportSpreadsheet writes the list and standings as an XLSX workbook.
func (s *DemonListService) ExportSpreadsheet(ctx context.Context, w io.Writer) error {
	type export struct {
		levels    []demonlistdomain.Level
		roster    []string
		standings []demonlistdomain.Standing
	}
	data, err := execute(s, ctx, "ExportSpreadsheet", "", func(ctx context.Context, db bun.IDB) (results.OperationResult[export, error], error) {
		snap, err := s.loadSnapshot(ctx, db)
		if err != nil {
			return results.OperationResult[export, error]{}, err
		}
		standings, err := s.standingsLogic(ctx, db)
		if err != nil {
			return results.OperationResult[export, error]{}, err
		}
		return results.SuccessResult[export, error](export{
			levels:    snap.Levels,
			roster:    snap.Roster.Players(),
			standings: *standings.Success,
		}), nil
	})
	if err != nil {
		return err
	}
	return writeWorkbook(w, data.levels, data.roster, data.standings)
}

func writeWorkbook(w io.Writer, levels []demonlistdomain.Level, roster []string, standings []demonlistdomain.Standing) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", levelsSheet); err != nil {
		return fmt.Errorf("failed to name levels sheet: %w", err)
	}
	header := []any{"Rank", "Tier", "Name", "Creator", "Difficulty", "Points"}
	for _, p := range roster {
		header = append(header, p)
	}
	for _, p := range roster {
		header = append(header, p+lockSuffix)
	}
	if err := setRow(f, levelsSheet, 1, header); err != nil {
		return err
	}
	for i, l := range levels {
		row := []any{l.Rank, string(l.Tier), l.Name, l.Creator, l.DifficultyScore, l.PointValue}
		for _, p := range roster {
			row = append(row, l.Entry(p).Percent)
		}
		for _, p := range roster {
			if entry := l.Entry(p); entry.Locked() {
				row = append(row, *entry.LockedPoints)
			} else {
				row = append(row, nil)
			}
		}
		if err := setRow(f, levelsSheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(standingsSheet); err != nil {
		return fmt.Errorf("failed to add standings sheet: %w", err)
	}
	if err := setRow(f, standingsSheet, 1, []any{"Player", "Active", "Reserve", "Banked", "Current", "Total"}); err != nil {
		return err
	}
	for i, st := range standings {
		if err := setRow(f, standingsSheet, i+2, []any{st.Player, st.Active, st.Reserve, st.Banked, st.Current, st.Total}); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// importedLevel is one parsed sheet row: raw percentages and exported locks keyed by
// player.
type importedLevel struct {
	name     string
	creator  string
	score    float64
	progress map[string]float64
	locks    map[string]float64
}

// ImportSpreadsheet replaces both tiers with the levels in an XLSX workbook. Players named
// in the sheet that are not on the roster are added and progress is rebuilt from the sheet.
// A completion carrying a <player>_locked value keeps that lock verbatim; other
// completions lock at the rank their level lands on.
func (s *DemonListService) ImportSpreadsheet(ctx context.Context, r io.Reader) (ImportResult, error) {
	res, err := execute(s, ctx, "ImportSpreadsheet", "", func(ctx context.Context, db bun.IDB) (results.OperationResult[ImportResult, error], error) {
		levels, players, err := parseWorkbook(r)
		if err != nil {
			return results.FailureResult[ImportResult, error](err), nil
		}
		return s.importLogic(ctx, db, levels, players)
	})
	if err != nil {
		return ImportResult{}, err
	}
	s.publish(ctx, demonlistevents.ChangedPayloadV1{Operation: "ImportSpreadsheet"})
	return res, nil
}

func (s *DemonListService) importLogic(ctx context.Context, db bun.IDB, imported []importedLevel, players []string) (results.OperationResult[ImportResult, error], error) {
	roster, rows, err := s.loadRoster(ctx, db)
	if err != nil {
		return results.OperationResult[ImportResult, error]{}, err
	}
	position := nextPosition(rows)
	for _, p := range players {
		if roster.Contains(p) {
			continue
		}
		if err := s.repo.InsertPlayer(ctx, db, &demonlistdb.Player{Name: p, Position: position}); err != nil {
			return results.OperationResult[ImportResult, error]{}, demonlistdomain.NewStoreError("insert player "+p, err)
		}
		position++
		roster, _ = roster.Add(p)
	}

	candidate := make([]demonlistdomain.Level, len(imported))
	sources := make(map[uuid.UUID]importedLevel, len(imported))
	for i, in := range imported {
		candidate[i] = demonlistdomain.Level{
			ID:              uuid.New(),
			Name:            in.name,
			Creator:         in.creator,
			DifficultyScore: in.score,
		}
		sources[candidate[i].ID] = in
	}
	ranked := s.coordinator.Engine().Recompute(candidate)

	policy := s.policy()
	tiers := map[demonlistdomain.Tier][]*demonlistdb.Level{}
	var progress []*demonlistdb.Progress
	for i := range ranked {
		l := &ranked[i]
		source := sources[l.ID]
		l.Progress = make(map[string]demonlistdomain.ProgressEntry, len(source.progress))
		for player, percent := range source.progress {
			var current demonlistdomain.ProgressEntry
			if lock, ok := source.locks[player]; ok {
				current = demonlistdomain.ProgressEntry{Percent: 100, LockedPoints: &lock}
			}
			l.Progress[player] = policy.ApplyProgress(current, l.Rank, percent)
		}
		roster.FillProgress(l)
		tiers[l.Tier] = append(tiers[l.Tier], levelToRow(*l))
		progress = append(progress, progressRows(*l)...)
	}

	if err := s.repo.ClearProgress(ctx, db); err != nil {
		return results.OperationResult[ImportResult, error]{}, demonlistdomain.NewStoreError("clear progress", err)
	}
	for _, tier := range demonlistdomain.Tiers {
		if err := s.repo.ReplaceLevels(ctx, db, tier, tiers[tier]); err != nil {
			return results.OperationResult[ImportResult, error]{}, demonlistdomain.NewStoreError(fmt.Sprintf("replace %s levels", tier), err)
		}
	}
	if err := s.repo.InsertProgress(ctx, db, progress); err != nil {
		return results.OperationResult[ImportResult, error]{}, demonlistdomain.NewStoreError("insert progress", err)
	}

	return results.SuccessResult[ImportResult, error](ImportResult{Levels: len(ranked), Players: roster.Players()}), nil
}

// parseWorkbook reads the Levels sheet, or the first sheet when there is none.
func parseWorkbook(r io.Reader) ([]importedLevel, []string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, demonlistdomain.NewValidationError("file", "not a readable XLSX workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, demonlistdomain.NewValidationError("file", "workbook has no sheets")
	}
	sheet := sheets[0]
	if slices.Contains(sheets, levelsSheet) {
		sheet = levelsSheet
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, demonlistdomain.NewValidationError("file", fmt.Sprintf("cannot read sheet %q", sheet))
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) ([]importedLevel, []string, error) {
	if len(rows) == 0 {
		return nil, nil, demonlistdomain.NewValidationError("file", "sheet is empty")
	}

	nameCol, creatorCol, scoreCol := -1, -1, -1
	named := map[int]string{}
	var names []string
	for i, raw := range rows[0] {
		header := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case header == "":
		case slices.Contains(nameHeaders, header):
			nameCol = i
		case slices.Contains(creatorHeaders, header):
			creatorCol = i
		case slices.Contains(scoreHeaders, header):
			scoreCol = i
		case slices.Contains(derivedHeaders, header):
		default:
			name, err := demonlistdomain.SanitizePlayerName(raw)
			if err != nil {
				return nil, nil, demonlistdomain.NewValidationError("file", fmt.Sprintf("column %d: bad player name %q", i+1, raw))
			}
			if slices.Contains(names, name) {
				return nil, nil, demonlistdomain.NewValidationError("file", fmt.Sprintf("player %q appears twice", name))
			}
			named[i] = name
			names = append(names, name)
		}
	}
	if nameCol < 0 || creatorCol < 0 || scoreCol < 0 {
		return nil, nil, demonlistdomain.NewValidationError("file", "header needs name, creator and difficulty columns")
	}

	// "<player>_locked" is a lock column only when <player> has its own column.
	playerCols := map[int]string{}
	lockCols := map[int]string{}
	var players []string
	for _, name := range names {
		if owner, ok := strings.CutSuffix(name, lockSuffix); ok && slices.Contains(names, owner) {
			continue
		}
		players = append(players, name)
	}
	for col, name := range named {
		if slices.Contains(players, name) {
			playerCols[col] = name
			continue
		}
		lockCols[col] = strings.TrimSuffix(name, lockSuffix)
	}

	cell := func(row []string, col int) string {
		if col < len(row) {
			return strings.TrimSpace(row[col])
		}
		return ""
	}

	var levels []importedLevel
	for n, row := range rows[1:] {
		name := cell(row, nameCol)
		if name == "" {
			continue
		}
		creator := cell(row, creatorCol)
		score, err := strconv.ParseFloat(cell(row, scoreCol), 64)
		if err != nil {
			return nil, nil, demonlistdomain.NewValidationError("difficulty_score", fmt.Sprintf("row %d: %q is not a number", n+2, cell(row, scoreCol)))
		}
		if err := demonlistdomain.ValidateLevelInput(name, creator, score); err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", n+2, err)
		}

		level := importedLevel{name: name, creator: creator, score: score, progress: map[string]float64{}, locks: map[string]float64{}}
		for col, player := range playerCols {
			level.progress[player] = demonlistdomain.ParsePercent(cell(row, col))
		}
		for col, player := range lockCols {
			raw := cell(row, col)
			if raw == "" {
				continue
			}
			points, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(points) || math.IsInf(points, 0) || points < 0 {
				return nil, nil, demonlistdomain.NewValidationError("locked_points", fmt.Sprintf("row %d: %q is not a point value", n+2, raw))
			}
			level.locks[player] = points
		}
		levels = append(levels, level)
	}
	return levels, players, nil
}
