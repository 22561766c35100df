package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hopelang/hope/internal/config"
	"github.com/hopelang/hope/internal/interp"
)

var (
	sourceFile string
	genListing bool
	restricted bool
	timeLimit  int
	searchPath string
	debug      bool
)

func main() {
	root := &cobra.Command{
		Use:           "hope [args for the program]",
		Short:         "An interpreter for a lazy functional language",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	flags := root.Flags()
	flags.StringVarP(&sourceFile, "file", "f", "", "read source from FILE instead of stdin")
	flags.BoolVarP(&genListing, "listing", "l", false, "emit a listing with errors annotated on stderr")
	flags.BoolVarP(&restricted, "restricted", "r", false, "disable file I/O, save and edit")
	flags.IntVarP(&timeLimit, "time-limit", "t", 0, "abort evaluation after SECS seconds")
	flags.StringVar(&searchPath, "path", "", "module search path (colon separated)")
	flags.BoolVar(&debug, "debug", false, "enable pipeline tracing")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(wd, "")
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	if searchPath != "" {
		cfg.Path = strings.Split(searchPath, ":")
	}
	if restricted {
		cfg.Restricted = true
	}
	if timeLimit > 0 {
		cfg.TimeLimit = timeLimit
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}

	s := interp.NewSession(cfg, log, args)
	s.Listing = genListing
	if err := s.Bootstrap(); err != nil {
		return err
	}

	if sourceFile != "" {
		data, err := os.ReadFile(sourceFile)
		if err != nil {
			return fmt.Errorf("can't read file '%s'", sourceFile)
		}
		return s.RunFile(string(data))
	}
	tty := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	return s.RunInteractive(os.Stdin, tty)
}
