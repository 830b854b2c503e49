package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "swarm-ops",
		Short: "Kraliki swarm operations - fleet control for LLM agent swarms",
		Long: `swarm-ops is the operational control plane for a Kraliki agent swarm.
It pauses and resumes the fleet, spawns agents from genome files,
watches fleet health, and serves the leaderboard dashboard.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
