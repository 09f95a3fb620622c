package store_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/store"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// testDB opens a fresh isolated database in t.TempDir().
// It is closed and deleted automatically when the test ends.
func testDB(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func day(s string) calendar.Date { return calendar.MustParse(s) }

func logRow(date string, bw float64, exercises ...model.ExerciseEntry) model.LogRow {
	return model.LogRow{Date: day(date), Bodyweight: model.Float(bw), Exercises: exercises}
}

func set(name string, weight float64, reps int) model.ExerciseEntry {
	return model.ExerciseEntry{Name: name, Weight: model.Float(weight), Reps: model.Int(reps)}
}

func mustUpsert(t *testing.T, s *store.Store, user string, rows ...model.LogRow) {
	t.Helper()
	for _, r := range rows {
		if err := s.UpsertLog(user, r); err != nil {
			t.Fatalf("UpsertLog %s: %v", r.Date, err)
		}
	}
}

func dates(rows []model.LogRow) string {
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.Date.Key()
	}
	return strings.Join(keys, ",")
}

// ─── Open / Path ──────────────────────────────────────────────────────────────

func TestOpenCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c", "test.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open with nested path: %v", err)
	}
	defer s.Close()
	if s.Path() != path {
		t.Errorf("Path: expected %q, got %q", path, s.Path())
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	mustUpsert(t, s, "ana", logRow("2024-03-01", 150))
	s.Close()

	s, err = store.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.GetLog("ana", day("2024-03-01")); err != nil {
		t.Errorf("row lost across reopen: %v", err)
	}
}

// ─── Logs ─────────────────────────────────────────────────────────────────────

func TestUpsertReplacesWholeDay(t *testing.T) {
	s := testDB(t)
	mustUpsert(t, s, "ana", logRow("2024-03-01", 150, set("Squat", 225, 5), set("Bench", 185, 5)))
	mustUpsert(t, s, "ana", logRow("2024-03-01", 151, set("Deadlift", 315, 3)))

	got, err := s.GetLog("ana", day("2024-03-01"))
	if err != nil {
		t.Fatalf("GetLog: %v", err)
	}
	if *got.Bodyweight != 151 {
		t.Errorf("bodyweight: got %v", *got.Bodyweight)
	}
	if len(got.Exercises) != 1 || got.Exercises[0].Name != "Deadlift" {
		t.Errorf("exercises not replaced: %+v", got.Exercises)
	}
}

func TestUpsertRejectsDuplicateExercise(t *testing.T) {
	s := testDB(t)
	err := s.UpsertLog("ana", logRow("2024-03-01", 150, set("Squat", 225, 5), set(" squat ", 235, 3)))
	if !errors.Is(err, store.ErrDuplicateExercise) {
		t.Errorf("expected ErrDuplicateExercise, got %v", err)
	}
}

func TestValidateRow(t *testing.T) {
	cases := []struct {
		name string
		row  model.LogRow
	}{
		{"zero date", model.LogRow{}},
		{"negative calories", model.LogRow{Date: day("2024-03-01"), Calories: model.Int(-1)}},
		{"negative protein", model.LogRow{Date: day("2024-03-01"), Protein: model.Int(-5)}},
		{"zero bodyweight", logRow("2024-03-01", 0)},
		{"negative reps", logRow("2024-03-01", 150, set("Squat", 225, -1))},
		{"blank exercise", logRow("2024-03-01", 150, set("  ", 225, 5))},
	}
	for _, tc := range cases {
		if err := store.ValidateRow(tc.row); !errors.Is(err, store.ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", tc.name, err)
		}
	}
	ok := model.LogRow{Date: day("2024-03-01"), Calories: model.Int(0), Exercises: []model.ExerciseEntry{{Name: "Plank"}}}
	if err := store.ValidateRow(ok); err != nil {
		t.Errorf("valid row rejected: %v", err)
	}
}

func TestLogsRangeAndOrder(t *testing.T) {
	s := testDB(t)
	mustUpsert(t, s, "ana",
		logRow("2024-03-05", 150),
		logRow("2024-02-28", 152),
		logRow("2024-03-01", 151),
		logRow("2024-03-10", 149),
	)
	mustUpsert(t, s, "bob", logRow("2024-03-02", 200))
	mustUpsert(t, s, "anabel", logRow("2024-03-02", 130))

	ctx := context.Background()
	all, err := s.Logs(ctx, "ana", calendar.Date{}, calendar.Date{})
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if got := dates(all); got != "2024-02-28,2024-03-01,2024-03-05,2024-03-10" {
		t.Errorf("all: %s", got)
	}

	mid, err := s.Logs(ctx, "ana", day("2024-03-01"), day("2024-03-05"))
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if got := dates(mid); got != "2024-03-01,2024-03-05" {
		t.Errorf("bounded: %s", got)
	}
}

func TestLogsEmptyUser(t *testing.T) {
	s := testDB(t)
	rows, err := s.AllLogs("nobody")
	if err != nil || rows == nil || len(rows) != 0 {
		t.Errorf("got %v, %v", rows, err)
	}
	if _, err := s.AllLogs(""); err == nil {
		t.Error("blank user: expected error")
	}
	if _, err := s.AllLogs("a|b"); err == nil {
		t.Error("user with separator: expected error")
	}
}

func TestBadUserIsInvalid(t *testing.T) {
	s := testDB(t)
	mustUpsert(t, s, "ana", logRow("2024-03-01", 150))
	d := day("2024-03-01")
	for _, user := range []string{"", "  ", "ana|2024-03-01"} {
		checks := map[string]error{
			"GetLog":         func() error { _, err := s.GetLog(user, d); return err }(),
			"DeleteLog":      s.DeleteLog(user, d),
			"FindExercise":   func() error { _, err := s.FindExercise(user, "Squat"); return err }(),
			"DeleteExercise": s.DeleteExercise(user, "Squat"),
			"ListExercises":  func() error { _, err := s.ListExercises(user); return err }(),
			"GetTemplate":    func() error { _, err := s.GetTemplate(user, "Push"); return err }(),
			"DeleteTemplate": s.DeleteTemplate(user, "Push"),
			"GetGoals":       func() error { _, err := s.GetGoals(user); return err }(),
		}
		for op, err := range checks {
			if !errors.Is(err, store.ErrInvalid) {
				t.Errorf("%s(%q): expected ErrInvalid, got %v", op, user, err)
			}
			if errors.Is(err, store.ErrNotFound) {
				t.Errorf("%s(%q): should not report not found", op, user)
			}
		}
	}
	if _, err := s.GetLog("ana", d); err != nil {
		t.Errorf("row should survive rejected deletes: %v", err)
	}
}

func TestLogsHonoursContext(t *testing.T) {
	s := testDB(t)
	mustUpsert(t, s, "ana", logRow("2024-03-01", 150))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Logs(ctx, "ana", calendar.Date{}, calendar.Date{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDeleteLog(t *testing.T) {
	s := testDB(t)
	mustUpsert(t, s, "ana", logRow("2024-03-01", 150))
	if err := s.DeleteLog("ana", day("2024-03-01")); err != nil {
		t.Fatalf("DeleteLog: %v", err)
	}
	if _, err := s.GetLog("ana", day("2024-03-01")); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteLog("ana", day("2024-03-01")); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestImportLogsCollectsErrors(t *testing.T) {
	s := testDB(t)
	rows := []model.LogRow{
		logRow("2024-03-01", 150),
		{Date: day("2024-03-02"), Calories: model.Int(-10)},
		logRow("2024-03-03", 149, set("Squat", 225, 5), set("squat", 225, 5)),
		logRow("2024-03-04", 148),
	}
	n, err := s.ImportLogs(context.Background(), "ana", rows)
	if n != 2 {
		t.Errorf("written: got %d want 2", n)
	}
	if errs := multierr.Errors(err); len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), err)
	}
	if !errors.Is(err, store.ErrDuplicateExercise) {
		t.Errorf("duplicate exercise not reported: %v", err)
	}
	all, _ := s.AllLogs("ana")
	if got := dates(all); got != "2024-03-01,2024-03-04" {
		t.Errorf("stored: %s", got)
	}
}

// ─── Exercises ────────────────────────────────────────────────────────────────

func TestExerciseCatalog(t *testing.T) {
	s := testDB(t)
	for _, name := range []string{"Squat", "bench press", "Deadlift"} {
		ex, err := s.PutExercise("ana", model.Exercise{Name: name})
		if err != nil {
			t.Fatalf("PutExercise %s: %v", name, err)
		}
		if ex.ID == "" || ex.CreatedAt.IsZero() {
			t.Errorf("%s: ID and CreatedAt should be assigned: %+v", name, ex)
		}
	}

	if _, err := s.PutExercise("ana", model.Exercise{Name: "SQUAT"}); !errors.Is(err, store.ErrExists) {
		t.Errorf("case-insensitive clash: expected ErrExists, got %v", err)
	}
	if _, err := s.PutExercise("bob", model.Exercise{Name: "Squat"}); err != nil {
		t.Errorf("other user may reuse the name: %v", err)
	}

	list, err := s.ListExercises("ana")
	if err != nil {
		t.Fatalf("ListExercises: %v", err)
	}
	var names []string
	for _, ex := range list {
		names = append(names, ex.Name)
	}
	if got := strings.Join(names, ","); got != "bench press,Deadlift,Squat" {
		t.Errorf("order: %s", got)
	}

	if _, err := s.FindExercise("ana", "BENCH PRESS"); err != nil {
		t.Errorf("FindExercise: %v", err)
	}
	if err := s.DeleteExercise("ana", "deadlift"); err != nil {
		t.Errorf("DeleteExercise: %v", err)
	}
	if err := s.DeleteExercise("ana", "deadlift"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

// ─── Templates ────────────────────────────────────────────────────────────────

func TestTemplates(t *testing.T) {
	s := testDB(t)
	tpl, err := s.PutTemplate("ana", model.Template{
		Name: "Push Day",
		Exercises: []model.TemplateExercise{
			{Name: "Bench Press", Sets: 5, Reps: 5, Weight: model.Float(185)},
			{Name: "Dips", Sets: 3, Reps: 10},
		},
	})
	if err != nil {
		t.Fatalf("PutTemplate: %v", err)
	}
	if tpl.ID == "" {
		t.Fatal("ID not assigned")
	}

	if _, err := s.PutTemplate("ana", model.Template{Name: "push day"}); !errors.Is(err, store.ErrExists) {
		t.Errorf("name clash: expected ErrExists, got %v", err)
	}

	byName, err := s.GetTemplate("ana", "PUSH DAY")
	if err != nil || byName.ID != tpl.ID {
		t.Errorf("GetTemplate by name: %+v, %v", byName, err)
	}
	byID, err := s.GetTemplate("ana", tpl.ID)
	if err != nil || len(byID.Exercises) != 2 {
		t.Errorf("GetTemplate by id: %+v, %v", byID, err)
	}

	tpl.Exercises = tpl.Exercises[:1]
	if _, err := s.PutTemplate("ana", tpl); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, _ := s.ListTemplates("ana")
	if len(list) != 1 || len(list[0].Exercises) != 1 {
		t.Errorf("update should replace in place: %+v", list)
	}

	if err := s.DeleteTemplate("ana", "Push Day"); err != nil {
		t.Errorf("DeleteTemplate: %v", err)
	}
	if _, err := s.GetTemplate("ana", tpl.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTemplateValidation(t *testing.T) {
	s := testDB(t)
	if _, err := s.PutTemplate("ana", model.Template{Name: " "}); err == nil {
		t.Error("blank name: expected error")
	}
	bad := model.Template{Name: "x", Exercises: []model.TemplateExercise{{Name: "Squat", Sets: -1}}}
	if _, err := s.PutTemplate("ana", bad); err == nil {
		t.Error("negative sets: expected error")
	}
}

// ─── Goals ────────────────────────────────────────────────────────────────────

func TestGoals(t *testing.T) {
	s := testDB(t)
	g, err := s.GetGoals("ana")
	if err != nil {
		t.Fatalf("GetGoals: %v", err)
	}
	if g.TargetBodyweight != nil || !g.UpdatedAt.IsZero() {
		t.Errorf("unset goals should be zero: %+v", g)
	}

	saved, err := s.SetGoals("ana", model.Goals{TargetBodyweight: model.Float(180), DailyProtein: model.Int(160)})
	if err != nil {
		t.Fatalf("SetGoals: %v", err)
	}
	if saved.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not stamped")
	}
	g, _ = s.GetGoals("ana")
	if g.TargetBodyweight == nil || *g.TargetBodyweight != 180 || g.DailyCalories != nil {
		t.Errorf("round trip: %+v", g)
	}

	if _, err := s.SetGoals("ana", model.Goals{DailyCalories: model.Int(-1)}); err == nil {
		t.Error("negative calories: expected error")
	}
}

// ─── Stats & Maintenance ──────────────────────────────────────────────────────

func TestStatsAndClear(t *testing.T) {
	s := testDB(t)
	mustUpsert(t, s, "ana", logRow("2024-03-01", 150), logRow("2024-03-02", 149))
	if _, err := s.PutExercise("ana", model.Exercise{Name: "Squat"}); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats) != len(store.AllBuckets) {
		t.Fatalf("expected %d buckets, got %d", len(store.AllBuckets), len(stats))
	}
	if stats[0].Name != "logs" || stats[0].Count != 2 || stats[0].Bytes == 0 {
		t.Errorf("logs stats: %+v", stats[0])
	}

	if err := s.ClearBucket("logs"); err != nil {
		t.Fatalf("ClearBucket: %v", err)
	}
	if rows, _ := s.AllLogs("ana"); len(rows) != 0 {
		t.Errorf("logs not cleared: %d", len(rows))
	}
	if _, err := s.FindExercise("ana", "squat"); err != nil {
		t.Errorf("other buckets should survive: %v", err)
	}
	if err := s.ClearBucket("_meta"); err == nil {
		t.Error("internal bucket: expected error")
	}

	if err := s.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if list, _ := s.ListExercises("ana"); len(list) != 0 {
		t.Errorf("exercises not cleared: %d", len(list))
	}
}

func TestCompactKeepsData(t *testing.T) {
	s := testDB(t)
	for i := 1; i <= 28; i++ {
		mustUpsert(t, s, "ana", logRow(fmt.Sprintf("2024-02-%02d", i), 150+float64(i)/10))
	}
	if err := s.ClearBucket("exercises"); err != nil {
		t.Fatal(err)
	}

	before, after, err := s.Compact()
	if err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if before == 0 || after == 0 {
		t.Errorf("sizes not reported: before=%d after=%d", before, after)
	}
	rows, err := s.AllLogs("ana")
	if err != nil {
		t.Fatalf("AllLogs after compact: %v", err)
	}
	if len(rows) != 28 {
		t.Errorf("expected 28 rows after compact, got %d", len(rows))
	}
	mustUpsert(t, s, "ana", logRow("2024-03-01", 149))
}
