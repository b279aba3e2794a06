package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// Version is the CLI version string.
const Version = "0.1.0"

// Flags holds parsed command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	Config string

	// Input
	Input  string
	Format string
	Expect string

	// Output
	Color bool

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args (command and its arguments)
	Args []string

	// Explicitly-set bool flags (for true/false overrides).
	SetColor   bool
	SetLogJSON bool
}

// ParseFlags parses command-line flags from args (without the program name).
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("klingnet-merkle", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// Commands
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	// Input
	fs.StringVar(&f.Input, "input", "", "Transaction file (- for stdin)")
	fs.StringVar(&f.Input, "i", "", "Transaction file (shorthand)")
	fs.StringVar(&f.Format, "format", "", "Transaction encoding: lines, hex, json, cbor")
	fs.StringVar(&f.Expect, "expect", "", "Claimed merkle root (hex)")

	// Output
	fs.BoolVar(&f.Color, "color", true, "Colorize verification results")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			f.Help = true
			return f, nil
		}
		return nil, err
	}

	f.SetColor = isFlagSet(fs, "color")
	f.SetLogJSON = isFlagSet(fs, "log-json")
	f.Args = fs.Args()

	// Flags after the command are not parsed by the flag package.
	for _, arg := range f.Args {
		if strings.HasPrefix(arg, "-") && arg != "-" {
			return nil, fmt.Errorf("flag %q was not parsed; global flags must come before the command", arg)
		}
	}

	return f, nil
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	// Input
	if f.Input != "" {
		cfg.Input.File = f.Input
	}
	if f.Format != "" {
		cfg.Input.Format = f.Format
	}
	if f.Expect != "" {
		cfg.Expect = f.Expect
	}

	// Output
	if f.SetColor {
		cfg.Output.Color = f.Color
	}

	// Logging
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

// isFlagSet checks if a flag was explicitly set.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// PrintUsage writes the CLI help text to stderr.
func PrintUsage() {
	usage := `klingnet-merkle - merkle root of an ordered transaction set

Usage:
  klingnet-merkle [options] <command> [args]

Commands:
  root              Print the merkle root of the transaction set
  leaves            Print every transaction with its leaf digest
  verify [root]     Compare the computed root with a claimed root
  check             Recompute the root independently and verify it
  demo              Run the built-in four-transaction example
  init [path]       Write a default config file
  help              Show this help message

Options:
  --help, -h        Show this help message
  --version, -v     Show version information
  --config, -c      Config file path (default: ./klingnet-merkle.conf)
  --input, -i       Transaction file, - for stdin (default: -)
  --format          lines (default), hex, json or cbor
  --expect          Claimed merkle root for verify (hex)
  --color           Colorize verification results (default: true)

Logging Options:
  --log-level       Log level: debug, info, warn (default), error
  --log-file        Log file path (JSON lines)
  --log-json        Output logs as JSON
`
	fmt.Fprint(os.Stderr, usage)
}

// Load loads configuration with the following precedence:
// 1. Default values
// 2. Config file
// 3. Command-line flags
//
// When the help or version flag is set the returned config is the default
// one and the caller is expected to exit.
func Load(args []string) (*Config, *Flags, error) {
	flags, err := ParseFlags(args)
	if err != nil {
		return nil, nil, err
	}

	cfg := Default()
	if flags.Help || flags.Version {
		return cfg, flags, nil
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = DefaultConfigFile
	}

	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}

	// Apply flags (highest precedence)
	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, flags, nil
}
