package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "usecasehub",
	Short: "Tab gateway and terminal client for the use-case assistant",
	Long: `usecasehub keeps per-tab chat sessions with the use-case agent, enforces the
status workflow on use-case edits, and tells open views when to re-fetch.

  usecasehub serve                 # run the gateway
  usecasehub chat --token $TOKEN   # chat from the terminal
  usecasehub transitions           # print the status workflow`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.AddCommand(serveCmd, chatCmd, transitionsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
