package cmd

// cmd/llm.go — machine-readable context document for assistant onboarding.
//
//   liftlog llm                         # start bundle
//   liftlog llm --topic toc             # topic index for the two-step handshake
//   liftlog llm --topic units,gotchas   # comma-separated topics
//   liftlog llm --topic all             # everything

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/render"
	"github.com/derickschaefer/liftlog/internal/series"
)

// ─── Topic registry ───────────────────────────────────────────────────────────

type llmTopic struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var topicRegistry = []llmTopic{
	{"start", "Onboarding bundle: commands, data model, units and gotchas."},
	{"toc", "Topic index. Ask for the topics you need next."},
	{"commands", "Every command with its flags, generated from the CLI itself."},
	{"data-model", "Log rows, fields, series windows and the Result envelope."},
	{"units", "Canonical pounds, display units and conversion rules."},
	{"examples", "End-to-end command sequences."},
	{"gotchas", "Sharp edges: gaps, duplicate exercises, empty windows."},
	{"version", "Build metadata for provenance."},
}

var startTopics = []string{"commands", "data-model", "units", "gotchas"}

// ─── Command ──────────────────────────────────────────────────────────────────

var llmTopicFlag string

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Emit a machine-readable context document for an assistant session",
	Long: `Emit a JSON document describing liftlog's commands, data model, unit rules
and sharp edges, sized for an assistant's context window.

Bare 'liftlog llm' emits the start bundle. For a smaller first message use
--topic toc, then request the listed topics by name.`,
	Example: `  liftlog llm
  liftlog llm --topic toc
  liftlog llm --topic units,gotchas
  liftlog llm --topic all --format jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		topics, err := parseLLMTopics(llmTopicFlag)
		if err != nil {
			return err
		}
		doc := buildLLMDoc(topics)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)
		if globalFlags.Format != render.FormatJSONL {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(doc)
	},
}

func init() {
	rootCmd.AddCommand(llmCmd)
	names := make([]string, len(topicRegistry))
	for i, t := range topicRegistry {
		names[i] = t.Name
	}
	llmCmd.Flags().StringVar(&llmTopicFlag, "topic", "start",
		"topic(s) to emit: "+strings.Join(names, "|")+"|all (comma-separated)")
}

// ─── Topic parsing ────────────────────────────────────────────────────────────

func parseLLMTopics(flag string) ([]string, error) {
	if flag == "" {
		flag = "start"
	}
	if flag == "all" {
		all := make([]string, len(topicRegistry))
		for i, t := range topicRegistry {
			all[i] = t.Name
		}
		return all, nil
	}
	var out []string
	for _, p := range strings.Split(flag, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !knownTopic(p) {
			return nil, fmt.Errorf("unknown topic %q (try --topic toc)", p)
		}
		out = append(out, p)
	}
	return out, nil
}

func knownTopic(name string) bool {
	for _, t := range topicRegistry {
		if t.Name == name {
			return true
		}
	}
	return false
}

// ─── Document builder ─────────────────────────────────────────────────────────

func buildLLMDoc(topics []string) map[string]any {
	set := make(map[string]bool, len(topics))
	for _, t := range topics {
		set[t] = true
		if t == "start" {
			for _, s := range startTopics {
				set[s] = true
			}
		}
	}

	doc := map[string]any{
		"tool":    "liftlog",
		"version": Version,
		"note": "Generated by `liftlog llm`. It describes this build of liftlog; " +
			"prefer it over assumptions about other fitness trackers.",
	}
	if set["toc"] {
		doc["toc"] = topicRegistry
	}
	if set["commands"] {
		doc["commands"] = commandReference(rootCmd)
	}
	if set["data-model"] {
		doc["data_model"] = buildDataModel()
	}
	if set["units"] {
		doc["units"] = buildUnits()
	}
	if set["examples"] {
		doc["examples"] = buildExamples()
	}
	if set["gotchas"] {
		doc["gotchas"] = buildGotchas()
	}
	if set["version"] {
		doc["version_detail"] = currentVersion()
	}
	return doc
}

type commandDoc struct {
	Path  string            `json:"path"`
	Short string            `json:"short"`
	Flags map[string]string `json:"flags,omitempty"`
}

// commandReference walks the command tree, skipping help and completion.
func commandReference(root *cobra.Command) []commandDoc {
	var out []commandDoc
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		for _, sub := range c.Commands() {
			if sub.Hidden || sub.Name() == "help" || sub.Name() == "completion" {
				continue
			}
			if sub.Runnable() {
				d := commandDoc{Path: sub.CommandPath(), Short: sub.Short}
				sub.LocalNonPersistentFlags().VisitAll(func(f *pflag.Flag) {
					if d.Flags == nil {
						d.Flags = make(map[string]string)
					}
					d.Flags["--"+f.Name] = f.Usage
				})
				out = append(out, d)
			}
			walk(sub)
		}
	}
	walk(root)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func buildDataModel() map[string]any {
	fields := make([]string, len(model.Fields))
	for i, f := range model.Fields {
		fields[i] = string(f)
	}
	windows := make([]string, len(series.Windows))
	for i, w := range series.Windows {
		windows[i] = string(w)
	}
	return map[string]any{
		"log_row": "One row per user per day: date (YYYY-MM-DD), optional bodyweight, " +
			"calories, protein and a list of exercise entries {name, weight, reps, notes}. " +
			"Exercise names are unique within a row, case-insensitively.",
		"fields":  fields,
		"windows": windows,
		"series": "A prepared series has one point per calendar day of the window, oldest first. " +
			"Missing values are null, never zero. Each series carries a Y domain with ticks and " +
			"X tick dates chosen for the window.",
		"e1rm":   "Estimated one-rep max by the Brzycki formula, reps clamped to 20; a single rep is the weight itself.",
		"result": "Non-streaming output is a Result envelope {kind, generated_at, command, unit, data, warnings, stats}.",
	}
}

func buildUnits() map[string]any {
	return map[string]any{
		"storage": "All weights are stored in pounds.",
		"display": "--unit kg or config unit converts weights at input and output only; kg output is rounded to one decimal. " +
			"Calories, protein and reps are never converted.",
		"export": "export and import always use pounds so files round-trip between users with different units.",
		"api":    "The HTTP API takes ?unit= on series and logs; request bodies are read in that unit.",
	}
}

func buildExamples() []map[string]string {
	return []map[string]string{
		{"intent": "log a training day", "cmd": `liftlog log add "Squat 225x5" "Bench Press 185x8; paused" --bodyweight 182.4 --calories 2650`},
		{"intent": "weekly protein bars", "cmd": "liftlog chart bar --field protein --window 90d --resample weekly"},
		{"intent": "squat strength trend", "cmd": "liftlog analyze trend --exercise Squat --fields e1rm --window 180d"},
		{"intent": "goal adherence", "cmd": "liftlog analyze goals --window 30d --tolerance 5"},
		{"intent": "move a log between users", "cmd": "liftlog export --user alex | liftlog import --user sam"},
	}
}

func buildGotchas() []string {
	return []string{
		"Logging the same date twice merges entries unless --replace is given; the API PUT always replaces the day.",
		"A row may not contain the same exercise twice; log the top set or note the rest.",
		"Exercise-specific fields (weight, reps, e1rm) need --exercise; without it they are empty.",
		"An empty window still yields points, all null, and a placeholder Y domain.",
		"Windows end today in the configured timezone, inclusive.",
	}
}
