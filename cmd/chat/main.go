package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var (
	identityFlag string
	verboseFlag  bool
)

var rootCmd = &cobra.Command{
	Use:          "chat",
	Short:        "Talent messaging client",
	Long:         "Terminal client for candidate and recruiter conversations.\nReads service settings from the environment and the profile in ~/.talentchat/config.toml.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&identityFlag, "identity", "", "user id to act as (overrides user.identity)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "log informational messages")
}

// cliLogger writes through the standard logger so the interactive client can
// redirect it into a file while it owns the terminal.
type cliLogger struct {
	verbose bool
}

func (l cliLogger) Info(msg string) {
	if l.verbose {
		log.Printf("INFO %s", msg)
	}
}

func (l cliLogger) Warn(msg string) {
	log.Printf("WARN %s", msg)
}

func (l cliLogger) Error(msg string) {
	log.Printf("ERROR %s", msg)
}

func resolveIdentity(p *Profile) (string, error) {
	if identityFlag != "" {
		return identityFlag, nil
	}
	if p.User.Identity != "" {
		return p.User.Identity, nil
	}
	return "", errors.New("no identity: pass --identity or run 'chat config set user.identity <uuid>'")
}

func main() {
	log.SetOutput(os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
