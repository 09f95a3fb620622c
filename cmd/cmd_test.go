package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/derickschaefer/liftlog/internal/app"
	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/config"
	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/units"
)

// ─── Harness ──────────────────────────────────────────────────────────────────

// pinToday fixes "today" at 2024-03-31 and clears liftlog's environment.
func pinToday(t *testing.T) {
	t.Helper()
	orig := calendar.Now
	calendar.Now = func() time.Time { return time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { calendar.Now = orig })
	for _, k := range []string{config.EnvUser, config.EnvDBPath, config.EnvInsightKey,
		config.EnvInsightURL, config.EnvUnit, config.EnvTimezone} {
		t.Setenv(k, "")
	}
	t.Setenv(config.EnvTimezone, "UTC")
}

// testDeps returns deps for user "ana" over a fresh database.
func testDeps(t *testing.T) *app.Deps {
	t.Helper()
	pinToday(t)
	cfg := &config.Config{
		User:     "ana",
		Unit:     units.Pounds,
		Timezone: "UTC",
		Format:   config.DefaultFormat,
		Window:   config.DefaultWindow,
		Timeout:  5 * time.Second,
		Rate:     100,
		DBPath:   filepath.Join(t.TempDir(), "liftlog.db"),
		CacheMB:  1,
		CacheTTL: time.Minute,
	}
	deps := app.New(cfg)
	if err := deps.RequireStore(); err != nil {
		t.Fatalf("RequireStore: %v", err)
	}
	t.Cleanup(func() { _ = deps.Close() })
	return deps
}

// cli runs commands against one temporary database from a temporary
// working directory, so no config.json on the host leaks in.
type cli struct {
	t  *testing.T
	db string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	pinToday(t)
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return &cli{t: t, db: filepath.Join(dir, "liftlog.db")}
}

// run executes liftlog with args plus --db and --user ana (unless a --user
// is given) and returns stdout and stderr.
func (c *cli) run(args ...string) (string, string, error) {
	c.t.Helper()
	resetFlags(rootCmd)
	full := append(append([]string{}, args...), "--db", c.db)
	if !containsArg(args, "--user") {
		full = append(full, "--user", "ana")
	}
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(full)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, stderr, err := c.run(args...)
	if err != nil {
		c.t.Fatalf("liftlog %s: %v\nstderr: %s", strings.Join(args, " "), err, stderr)
	}
	return out
}

// result decodes a --format json envelope, with Data decoded into data.
func (c *cli) result(data any, args ...string) model.Result {
	c.t.Helper()
	out := c.mustRun(append(args, "--format", "json")...)
	var env struct {
		model.Result
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		c.t.Fatalf("decoding %q: %v\n%s", strings.Join(args, " "), err, out)
	}
	if data != nil {
		if err := json.Unmarshal(env.Data, data); err != nil {
			c.t.Fatalf("decoding data of %q: %v", strings.Join(args, " "), err)
		}
	}
	return env.Result
}

// resetFlags restores every flag in the tree to its default, since cobra
// keeps parsed values in package-level variables between Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func containsArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

// ─── Routing ──────────────────────────────────────────────────────────────────

func TestCommandTreeRouting(t *testing.T) {
	paths := [][]string{
		{"log", "add"}, {"log", "get"}, {"log", "list"}, {"log", "delete"},
		{"exercise", "add"}, {"exercise", "list"}, {"exercise", "delete"},
		{"template", "save"}, {"template", "list"}, {"template", "show"},
		{"template", "apply"}, {"template", "delete"},
		{"goal", "get"}, {"goal", "set"},
		{"series"},
		{"chart", "plot"}, {"chart", "bar"},
		{"analyze", "summary"}, {"analyze", "trend"}, {"analyze", "goals"}, {"analyze", "insight"},
		{"export"}, {"import"}, {"seed"}, {"serve"},
		{"store", "stats"}, {"store", "clear"}, {"store", "compact"},
		{"config", "init"}, {"config", "get"}, {"config", "set"},
		{"llm"}, {"version"}, {"completion"},
	}
	for _, p := range paths {
		c, _, err := rootCmd.Find(p)
		if err != nil {
			t.Errorf("%v: %v", p, err)
			continue
		}
		if c.Name() != p[len(p)-1] {
			t.Errorf("%v resolved to %q", p, c.Name())
		}
	}
}

// ─── log ──────────────────────────────────────────────────────────────────────

func TestLogAddMergesSameDay(t *testing.T) {
	c := newCLI(t)
	c.mustRun("log", "add", "--date", "2024-03-30", "--bodyweight", "180", "Squat 225x5")
	c.mustRun("log", "add", "--date", "2024-03-30", "--calories", "2500", "Bench Press 185x5", "squat 235x3")

	var row model.LogRow
	res := c.result(&row, "log", "get", "2024-03-30")
	if res.Kind != model.KindLogRows {
		t.Errorf("kind: got %q", res.Kind)
	}
	if row.Bodyweight == nil || *row.Bodyweight != 180 || row.Calories == nil || *row.Calories != 2500 {
		t.Errorf("daily fields: %+v", row)
	}
	if len(row.Exercises) != 2 {
		t.Fatalf("expected 2 entries, got %+v", row.Exercises)
	}
	if sq, _ := row.Entry("Squat"); sq.Weight == nil || *sq.Weight != 235 || sq.Name != "Squat" {
		t.Errorf("squat should be replaced with catalog spelling kept, got %+v", sq)
	}

	c.mustRun("log", "add", "--date", "2024-03-30", "--replace", "--protein", "150")
	c.result(&row, "log", "get", "2024-03-30")
	if row.Bodyweight != nil || len(row.Exercises) != 0 || *row.Protein != 150 {
		t.Errorf("--replace should overwrite the whole row, got %+v", row)
	}
}

func TestLogAddKilograms(t *testing.T) {
	c := newCLI(t)
	c.mustRun("log", "add", "--unit", "kg", "--bodyweight", "80", "Deadlift 180x3")

	var row model.LogRow
	res := c.result(&row, "log", "get")
	if res.Unit != "lbs" || units.Round1(*row.Bodyweight) != 176.4 {
		t.Errorf("80 kg should be stored as about 176.37 lbs, got %v %s", *row.Bodyweight, res.Unit)
	}
	res = c.result(&row, "log", "get", "today", "--unit", "kg")
	if res.Unit != "kg" || *row.Bodyweight != 80 || *row.Exercises[0].Weight != 180 {
		t.Errorf("kg display: got %+v (%s)", row, res.Unit)
	}
}

func TestLogAddRejects(t *testing.T) {
	c := newCLI(t)
	if _, _, err := c.run("log", "add"); err == nil {
		t.Error("empty row: expected error")
	}
	if _, _, err := c.run("log", "add", "Squat 225x5", "squat 235x3"); err == nil {
		t.Error("duplicate exercise in one row: expected error")
	}
	if _, _, err := c.run("log", "get", "2024-01-01"); err == nil {
		t.Error("missing day: expected error")
	}
	if _, _, err := c.run("log", "list", "--format", "yaml"); err == nil {
		t.Error("unknown format: expected error")
	}
}

func TestLogListWarnsWhenEmpty(t *testing.T) {
	c := newCLI(t)
	res := c.result(nil, "log", "list")
	if len(res.Warnings) != 1 || res.Warnings[0] != "no rows in range" {
		t.Errorf("warnings: %v", res.Warnings)
	}
}

// ─── series / chart ───────────────────────────────────────────────────────────

func TestSeriesCommand(t *testing.T) {
	c := newCLI(t)
	c.mustRun("log", "add", "--date", "2024-03-26", "--bodyweight", "182", "Squat 225x5")
	c.mustRun("log", "add", "--date", "2024-03-29", "--bodyweight", "181", "Squat 235x3")

	var p struct {
		Field  string              `json:"field"`
		Points []model.FilledPoint `json:"points"`
	}
	res := c.result(&p, "series", "--window", "7d", "--exercise", "squat", "--field", "e1rm")
	if res.Kind != model.KindSeries {
		t.Errorf("kind: got %q", res.Kind)
	}
	if len(p.Points) != 7 || p.Points[0].Date.Key() != "2024-03-25" {
		t.Fatalf("expected 7 days from 2024-03-25, got %d", len(p.Points))
	}
	if p.Points[1].EstimatedOneRepMax == nil || p.Points[2].EstimatedOneRepMax != nil {
		t.Errorf("e1rm should be set on logged days only: %+v", p.Points[1:3])
	}
	if p.Points[0].Bodyweight != nil {
		t.Error("gap day should be null, not zero")
	}

	out := c.mustRun("series", "--window", "7d", "--points")
	if lines := strings.Count(out, "\n"); lines != 7 {
		t.Errorf("--points should write 7 JSONL lines, got %d", lines)
	}
}

func TestChartCommands(t *testing.T) {
	c := newCLI(t)
	c.mustRun("seed", "--days", "60", "--seed", "7", "--end", "2024-03-31", "--quiet")

	out := c.mustRun("chart", "plot", "--window", "30d", "--width", "60", "--ma", "7")
	if !strings.Contains(out, "7-day average") {
		t.Errorf("moving-average title missing:\n%s", out)
	}
	out = c.mustRun("chart", "bar", "--field", "protein", "--window", "30d", "--resample", "weekly", "--width", "60")
	if !strings.Contains(out, "weekly") {
		t.Errorf("resampled bar title missing:\n%s", out)
	}
}

// ─── goals / analyze ──────────────────────────────────────────────────────────

func TestGoalsAndAnalysis(t *testing.T) {
	c := newCLI(t)
	if _, _, err := c.run("analyze", "goals"); err == nil {
		t.Error("no goals: expected error")
	}
	c.mustRun("log", "add", "--date", "2024-03-30", "--bodyweight", "180", "--calories", "2450")
	c.mustRun("log", "add", "--date", "2024-03-31", "--bodyweight", "179", "--calories", "3000")
	c.mustRun("goal", "set", "--bodyweight", "175", "--calories", "2500")
	c.mustRun("goal", "set", "--protein", "180")

	var g model.Goals
	c.result(&g, "goal", "get")
	if g.TargetBodyweight == nil || *g.TargetBodyweight != 175 || g.DailyProtein == nil || g.DailyCalories == nil {
		t.Errorf("goal set should merge: %+v", g)
	}

	var table model.Table
	c.result(&table, "analyze", "goals", "--window", "7d")
	if len(table.Rows) != 3 {
		t.Fatalf("expected 3 goal rows, got %v", table.Rows)
	}
	if table.Rows[0][2] != "179" || table.Rows[0][4] != "in progress" {
		t.Errorf("bodyweight row: %v", table.Rows[0])
	}
	if table.Rows[1][5] != "50%" {
		t.Errorf("calorie adherence: %v", table.Rows[1])
	}

	var sums []struct {
		Label string `json:"label"`
	}
	c.result(&sums, "analyze", "summary", "--window", "7d")
	if len(sums) != 3 {
		t.Errorf("expected bodyweight, calories and protein summaries, got %d", len(sums))
	}
}

func TestInsightFallsBackToLocal(t *testing.T) {
	c := newCLI(t)
	c.mustRun("log", "add", "--date", "2024-03-25", "Squat 225x5")
	c.mustRun("log", "add", "--date", "2024-03-29", "Squat 235x5")

	var rep model.InsightReport
	res := c.result(&rep, "analyze", "insight", "squat", "--window", "7d")
	if rep.Source != "local" || rep.Exercise != "Squat" || rep.Message == "" {
		t.Errorf("report: %+v", rep)
	}
	if len(res.Warnings) == 0 || !strings.Contains(res.Warnings[0], "not configured") {
		t.Errorf("expected a fallback warning, got %v", res.Warnings)
	}
}

// ─── export / import / seed ──────────────────────────────────────────────────

func TestExportImportRoundTrip(t *testing.T) {
	c := newCLI(t)
	c.mustRun("log", "add", "--date", "2024-03-01", "--unit", "kg", "--bodyweight", "80", "Squat 100x5")
	c.mustRun("log", "add", "--date", "2024-03-02", "--calories", "2300")

	file := filepath.Join(t.TempDir(), "backup.jsonl")
	c.mustRun("export", "--out", file, "--unit", "kg")
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"bodyweight":176.36`) {
		t.Errorf("export should be in pounds regardless of --unit:\n%s", data)
	}

	out := c.mustRun("import", file, "--user", "sam")
	if !strings.Contains(out, "Imported 2 of 2") {
		t.Errorf("import summary: %q", out)
	}
	var rows []model.LogRow
	c.result(&rows, "log", "list", "--user", "sam", "--from", "2024-03-01", "--to", "2024-03-31")
	if len(rows) != 2 || units.Round1(*rows[0].Bodyweight) != 176.4 {
		t.Errorf("imported rows: %+v", rows)
	}
	var ex []model.Exercise
	c.result(&ex, "exercise", "list", "--user", "sam")
	if len(ex) != 1 || ex[0].Name != "Squat" {
		t.Errorf("import should add exercises to the catalog: %+v", ex)
	}
}

func TestSeedDryRunIsDeterministic(t *testing.T) {
	c := newCLI(t)
	a := c.mustRun("seed", "--dry-run", "--days", "10", "--seed", "3", "--end", "2024-03-31")
	b := c.mustRun("seed", "--dry-run", "--days", "10", "--seed", "3", "--end", "2024-03-31")
	if a == "" || a != b {
		t.Errorf("same seed should give the same rows")
	}
	if n := strings.Count(a, "\n"); n == 0 || n > 10 {
		t.Errorf("expected 1..10 rows, got %d", n)
	}
	if _, err := os.Stat(c.db); err == nil {
		t.Error("--dry-run should not create the database")
	}
}

// ─── template ─────────────────────────────────────────────────────────────────

func TestTemplateApply(t *testing.T) {
	c := newCLI(t)
	c.mustRun("template", "save", "--name", "Day A", "Squat 3x5@225", "Chin Up 3x8")
	c.mustRun("log", "add", "--bodyweight", "181", "Squat 200x5")
	c.mustRun("template", "apply", "day a")

	var row model.LogRow
	c.result(&row, "log", "get")
	if *row.Bodyweight != 181 || len(row.Exercises) != 2 {
		t.Fatalf("apply should merge into the row: %+v", row)
	}
	sq, _ := row.Entry("Squat")
	if *sq.Weight != 225 || *sq.Reps != 5 {
		t.Errorf("squat should come from the template: %+v", sq)
	}
	if chin, _ := row.Entry("Chin Up"); chin.Weight != nil || *chin.Reps != 8 {
		t.Errorf("chin up: %+v", chin)
	}
}

// ─── store / config ───────────────────────────────────────────────────────────

func TestStoreCommands(t *testing.T) {
	c := newCLI(t)
	c.mustRun("log", "add", "--bodyweight", "181")

	out := c.mustRun("store", "stats")
	if !strings.Contains(out, "logs") || !strings.Contains(out, "templates") {
		t.Errorf("stats table:\n%s", out)
	}
	if _, _, err := c.run("store", "clear"); err == nil {
		t.Error("clear without --all or --bucket: expected error")
	}
	c.mustRun("store", "clear", "--bucket", "logs")
	c.mustRun("store", "compact")
	if _, _, err := c.run("log", "get"); err == nil {
		t.Error("cleared row should be gone")
	}
}

func TestConfigSetAndGet(t *testing.T) {
	c := newCLI(t)
	c.mustRun("config", "set", "unit", "kilograms")
	c.mustRun("config", "set", "default_window", "90d")
	if _, _, err := c.run("config", "set", "default_window", "2w"); err == nil {
		t.Error("bad window: expected error")
	}
	if _, _, err := c.run("config", "set", "colour", "red"); err == nil {
		t.Error("unknown key: expected error")
	}

	var table model.Table
	c.result(&table, "config", "get")
	got := map[string]string{}
	for _, r := range table.Rows {
		got[r[0]] = r[1]
	}
	if got["unit"] != "kg" || got["default_window"] != "90d" {
		t.Errorf("config get: %v", got)
	}
	if !strings.HasSuffix(got["config_file"], config.DefaultConfigFile) {
		t.Errorf("config_file: %q", got["config_file"])
	}
	if _, _, err := c.run("config", "init"); err == nil {
		t.Error("init over an existing config.json: expected error")
	}
}
