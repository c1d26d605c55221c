// Package flagx contains helpers for two-pass command-line parsing: a first
// pass that only looks for the config file path, and the full flag pass that
// runs after the file has been applied.
package flagx

import (
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// ConfigFlags are the spellings accepted for the config file path.
var ConfigFlags = []string{"-c", "--config"}

// FilterArgs returns the subset of args made of allowed flags and their values.
//
// Both "-c conf.yaml" and "--config=conf.yaml" forms are recognised. A value
// given as a separate argument is only taken if it does not start with "-".
// The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// ConfigPath extracts the config file path from args (usually os.Args[1:]).
// Everything except -c/--config is ignored so the caller can parse its own
// flags later. The last occurrence wins; an empty string means none was given.
func ConfigPath(args []string) string {
	var path string

	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	AddConfigFlag(fs, &path)
	_ = fs.Parse(FilterArgs(args, ConfigFlags))

	return path
}

// AddConfigFlag registers -c/--config on fs so that the full flag pass
// accepts the flag it already consumed in ConfigPath.
func AddConfigFlag(fs *pflag.FlagSet, p *string) {
	fs.StringVarP(p, "config", "c", "", "path to a JSON or YAML config file")
}
