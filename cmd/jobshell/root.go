package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"jobshell/internal/config"
	"jobshell/internal/logging"
	"jobshell/internal/shell"
)

// exitCode carries a -c command's status out through cobra.
type exitCode int

func (c exitCode) Error() string { return fmt.Sprintf("exit status %d", int(c)) }

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile, command string

	cmd := &cobra.Command{
		Use:           "jobshell",
		Short:         "Interactive shell with job control",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgFile, v)
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}

			log, err := logging.New(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			s := shell.New(cfg, log)
			if command == "" {
				return s.Run()
			}
			code, err := s.RunLine(command)
			if err != nil {
				return err
			}
			if code != 0 {
				return exitCode(code)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfgFile, "config", "config.yml", "path to the YAML config file")
	f.StringVarP(&command, "command", "c", "", "run one command line and exit")
	f.Int("max-jobs", 0, "job table capacity")
	f.String("prompt", "", "prompt string")
	f.String("log-file", "", "diagnostic log file")
	f.String("log-level", "", "diagnostic log level")
	bindFlags(f, v)
	return cmd
}

func bindFlags(f *pflag.FlagSet, v *viper.Viper) {
	for _, name := range []string{"max-jobs", "prompt", "log-file", "log-level"} {
		_ = v.BindPFlag(name, f.Lookup(name))
	}
	v.SetEnvPrefix("JOBSHELL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// loadConfig reads the config file, then lets flags and JOBSHELL_*
// variables override it.
func loadConfig(file string, v *viper.Viper) (*config.Config, error) {
	cfg, err := config.Load(file)
	if err != nil {
		return nil, err
	}
	if v.IsSet("max-jobs") {
		cfg.MaxJobs = v.GetInt("max-jobs")
	}
	if v.IsSet("prompt") {
		cfg.Prompt = v.GetString("prompt")
	}
	if v.IsSet("log-file") {
		cfg.LogFile = v.GetString("log-file")
	}
	if v.IsSet("log-level") {
		cfg.LogLevel = v.GetString("log-level")
	}
	return cfg, cfg.Normalize()
}
