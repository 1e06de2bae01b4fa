package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/csmark/config"
	"github.com/dhamidi/csmark/csharp/codebase"
)

const version = "0.1.0"

// settings are shared by every subcommand.
type settings struct {
	configPath string
	verbose    int
	color      string
	defines    []string

	cfg    *config.Config
	stdout io.Writer
}

func (s *settings) load() error {
	var err error
	if s.configPath != "" {
		s.cfg, err = config.Load(s.configPath)
		if err == nil {
			s.cfg.ApplyEnv()
		}
	} else {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			wd = "."
		}
		s.cfg, _, err = config.Discover(context.Background(), wd)
	}
	if err != nil {
		return err
	}

	// each -v raises the configured level by one step
	commonlog.Configure(s.cfg.Verbosity()+s.verbose, nil)

	if s.color != "" {
		s.cfg.Color = s.color
	}
	s.cfg.Defines = append(s.cfg.Defines, s.defines...)
	return nil
}

func newRootCmd(s *settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "csmark",
		Short:         "Structural marker scanner for C# sources",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.load()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&s.configPath, "config", "", "config file (default: nearest .csmark.yaml)")
	flags.CountVarP(&s.verbose, "verbose", "v", "log more; repeat for more detail")
	flags.StringVar(&s.color, "color", "", "color output: auto, always or never")
	flags.StringArrayVarP(&s.defines, "define", "D", nil, "define a preprocessor symbol")

	rootCmd.AddCommand(newParseCmd(s))
	rootCmd.AddCommand(newShowCmd(s))
	rootCmd.AddCommand(newScanCmd(s))
	rootCmd.AddCommand(newWatchCmd(s))
	rootCmd.AddCommand(newVerifyCmd(s))
	rootCmd.AddCommand(newLSPCmd(s))

	return rootCmd
}

func main() {
	rootCmd := newRootCmd(&settings{})
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// codebaseOptions translates the loaded config into codebase options.
func (s *settings) codebaseOptions() []codebase.Option {
	return []codebase.Option{
		codebase.WithInclude(s.cfg.Include...),
		codebase.WithExclude(s.cfg.Exclude...),
		codebase.WithDefines(s.cfg.Defines...),
		codebase.WithJobs(s.cfg.Jobs),
		codebase.WithCacheSize(s.cfg.CacheSize),
	}
}

// rootDir is the directory argument if given, else the config root.
func (s *settings) rootDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if s.cfg.Root != "" {
		return s.cfg.Root
	}
	return "."
}

func (s *settings) out() io.Writer {
	if s.stdout != nil {
		return s.stdout
	}
	return os.Stdout
}
