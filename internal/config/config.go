package config

import (
	"fmt"
	"strings"
)

// Config holds the parsed command-line configuration.
type Config struct {
	// DBPath is the rocpd database to read. Required.
	DBPath string
	// Filter is an optional event filter expression.
	Filter string
	// Category restricts output to a single category. Convenience
	// shorthand compiled into a filter expression.
	Category string
	// Info prints database metadata instead of the message stream.
	Info bool
	// Export sends paired events to an OTLP endpoint as spans.
	Export bool
	// Verbose enables debug logging.
	Verbose bool
}

// ParseArgs parses command-line arguments and returns a Config.
// Expected format: rocpd-stream [flags] <db-path>
func ParseArgs(args []string) (*Config, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no arguments provided")
	}

	programName := args[0]
	cfg := &Config{}

	for i := 1; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--filter", "-f":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s requires a value", arg)
			}
			cfg.Filter = args[i+1]
			i++
		case "--category", "-c":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s requires a value", arg)
			}
			cfg.Category = args[i+1]
			i++
		case "--info":
			cfg.Info = true
		case "--export":
			cfg.Export = true
		case "--verbose", "-v":
			cfg.Verbose = true
		case "--help", "-h":
			return nil, fmt.Errorf("%s", usage(programName))
		default:
			if strings.HasPrefix(arg, "-") {
				return nil, fmt.Errorf("unknown flag %q\n%s", arg, usage(programName))
			}
			if cfg.DBPath != "" {
				return nil, fmt.Errorf("unexpected argument %q: database path already set to %q", arg, cfg.DBPath)
			}
			cfg.DBPath = arg
		}
	}

	if cfg.DBPath == "" {
		return nil, fmt.Errorf("database path is required\n%s", usage(programName))
	}

	return cfg, nil
}

// FilterExpression combines the --filter and --category flags into one
// expression, or returns "" when neither is set.
func (c *Config) FilterExpression() string {
	var parts []string
	if c.Category != "" {
		parts = append(parts, fmt.Sprintf("category == %q", c.Category))
	}
	if c.Filter != "" {
		parts = append(parts, "("+c.Filter+")")
	}
	return strings.Join(parts, " && ")
}

func usage(programName string) string {
	return fmt.Sprintf(`Usage: %s [--filter <expr>] [--category <name>] [--info] [--export] [--verbose] <db-path>
Example: %s --category KERNEL_DISPATCH results.db`, programName, programName)
}
