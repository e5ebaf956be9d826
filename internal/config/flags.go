package config

import "flag"

// Flags are the command line overrides shared by every subcommand.
type Flags struct {
	Config  string
	Debug   bool
	LogFile string
	Workers int
}

// Register adds the shared flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Also log to this file, rotated")
	fs.IntVar(&f.Workers, "workers", 0, "Parallel workers for geometry work (0 = all CPUs)")
}

// apply applies flag overrides to the config.
func (f Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.Workers > 0 {
		cfg.Workers = f.Workers
	}
}
