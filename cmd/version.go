package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/liftlog/internal/store"
)

// Version is the release string. Release builds set it with:
//
//	go build -ldflags "-X github.com/derickschaefer/liftlog/cmd.Version=v0.3.0"
var Version = "v0.3.0-dev"

// BuildTime is optionally injected alongside Version.
var BuildTime = ""

type versionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	GOOS      string `json:"goos"`
	GOARCH    string `json:"goarch"`
	Schema    int    `json:"schema_version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the liftlog version and build information",
	Long: `Print the liftlog version string and build metadata.

Default output is plain text. Use --format json for structured output.`,
	Example: `  liftlog version
  liftlog version --format json | jq .version`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := currentVersion()
		out := cmd.OutOrStdout()

		switch globalFlags.Format {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		case "jsonl":
			b, err := json.Marshal(info)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\n", b)
			return nil
		default:
			fmt.Fprintf(out, "liftlog %s\n", info.Version)
			fmt.Fprintf(out, "go      %s\n", info.GoVersion)
			fmt.Fprintf(out, "os      %s/%s\n", info.GOOS, info.GOARCH)
			fmt.Fprintf(out, "schema  %d\n", info.Schema)
			if info.Commit != "" {
				fmt.Fprintf(out, "commit  %s\n", info.Commit)
			}
			if info.BuildTime != "" {
				fmt.Fprintf(out, "built   %s\n", info.BuildTime)
			}
			return nil
		}
	},
}

func currentVersion() versionInfo {
	info := versionInfo{
		Version:   Version,
		GoVersion: runtime.Version(),
		GOOS:      runtime.GOOS,
		GOARCH:    runtime.GOARCH,
		Schema:    store.SchemaVersion,
		BuildTime: BuildTime,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 12 {
				info.Commit = s.Value[:12]
			}
		}
	}
	return info
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
