package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/kraliki/swarm-ops/internal/caretaker"
	"github.com/kraliki/swarm-ops/internal/config"
	"github.com/kraliki/swarm-ops/internal/genomes"
	"github.com/kraliki/swarm-ops/internal/leaderboard"
	"github.com/kraliki/swarm-ops/internal/notify"
	"github.com/kraliki/swarm-ops/internal/procman"
	"github.com/kraliki/swarm-ops/internal/runstore"
	"github.com/kraliki/swarm-ops/internal/swarm"
	"github.com/kraliki/swarm-ops/tui"
	"github.com/kraliki/swarm-ops/web/api"
)

var (
	pauseKillRunning bool
	pauseActor       string
	leaderboardTop   int
	genomesEnable    bool
	genomesDisable   bool
	servePort        int
	asJSON           bool
)

func init() {
	// status command
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show swarm status",
		RunE:  runStatus,
	}
	statusCmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statusCmd)

	// pause command
	pauseCmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause the swarm (disable all CLIs)",
		RunE:  runPause,
	}
	pauseCmd.Flags().BoolVar(&pauseKillRunning, "kill-running", false, "also kill running agent processes")
	pauseCmd.Flags().StringVar(&pauseActor, "actor", "cli", "who is pausing")
	rootCmd.AddCommand(pauseCmd)

	// resume command
	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume the swarm (restore CLI policy)",
		RunE:  runResume,
	}
	rootCmd.AddCommand(resumeCmd)

	// power command
	powerCmd := &cobra.Command{
		Use:       "power {on|off|restart}",
		Short:     "Start, stop, or restart swarm services",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off", "restart"},
		RunE:      runPower,
	}
	rootCmd.AddCommand(powerCmd)

	// spawn command
	spawnCmd := &cobra.Command{
		Use:   "spawn GENOME",
		Short: "Spawn an agent from a genome",
		Args:  cobra.ExactArgs(1),
		RunE:  runSpawn,
	}
	rootCmd.AddCommand(spawnCmd)

	// caretaker command
	caretakerCmd := &cobra.Command{
		Use:   "caretaker",
		Short: "Take a one-shot fleet health snapshot",
		RunE:  runCaretaker,
	}
	caretakerCmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(caretakerCmd)

	// leaderboard command
	leaderboardCmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the merged agent leaderboard",
		RunE:  runLeaderboard,
	}
	leaderboardCmd.Flags().IntVar(&leaderboardTop, "top", 20, "number of entries to show")
	rootCmd.AddCommand(leaderboardCmd)

	// genomes command
	genomesCmd := &cobra.Command{
		Use:   "genomes [GENOME]",
		Short: "List genomes, or toggle one with --enable/--disable",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGenomes,
	}
	genomesCmd.Flags().BoolVar(&genomesEnable, "enable", false, "enable the named genome")
	genomesCmd.Flags().BoolVar(&genomesDisable, "disable", false, "disable the named genome")
	rootCmd.AddCommand(genomesCmd)

	// tui command
	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch the fleet dashboard TUI",
		RunE:  runTUI,
	}
	rootCmd.AddCommand(tuiCmd)

	// serve command
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web API and scheduled caretaker",
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

// deps is the wired object graph shared by all commands.
type deps struct {
	cfg        *config.Config
	controller *swarm.Controller
	monitor    *caretaker.Monitor
	roster     *genomes.Roster
	board      *leaderboard.Aggregator
}

func buildDeps() (*deps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	proc := procman.NewPM2(nil)
	spawner := procman.NewSpawner(nil, cfg.General.SpawnScript)
	controller := swarm.NewController(
		swarm.NewPolicyStore(cfg.Paths.PolicyFile),
		swarm.NewPauseStore(cfg.Paths.PauseFile),
		proc, spawner, cfg.Caretaker.ServiceNames,
	)

	notifier := notify.NewSlackNotifier(cfg.Notifications.SlackWebhook)
	monitor := caretaker.New(proc, nil, notifier, caretaker.Config{
		AgentPrefixes: cfg.Caretaker.AgentPrefixes,
		ServiceNames:  cfg.Caretaker.ServiceNames,
		LongRunning:   time.Duration(cfg.Caretaker.LongRunningHours) * time.Hour,
	})

	return &deps{
		cfg:        cfg,
		controller: controller,
		monitor:    monitor,
		roster:     genomes.NewRoster(cfg.Paths.GenomeDir, cfg.Paths.DecisionLog),
		board:      leaderboard.New(cfg.Paths.LeaderboardFile, cfg.Paths.FitnessFile),
	}, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runStatus(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}

	state := d.controller.State()
	report := d.monitor.Snapshot()

	if asJSON {
		return printJSON(map[string]interface{}{
			"pause":  state,
			"health": report,
		})
	}

	if state.Paused {
		who := "unknown"
		if state.PausedBy != nil {
			who = *state.PausedBy
		}
		color.Yellow("Swarm: PAUSED (by %s)", who)
	} else {
		color.Green("Swarm: RUNNING")
	}

	fmt.Printf("Agents: %d/%d online", report.AgentsOnline, report.AgentsTotal)
	if report.AgentsErrored > 0 {
		fmt.Printf(", %s", color.RedString("%d errored", report.AgentsErrored))
	}
	fmt.Println()
	fmt.Printf("Services: %d/%d online\n", report.ServicesOnline, report.ServicesTotal)
	fmt.Printf("Memory: %.1f%% | Disk: %.1f%% | Load: %.2f\n",
		report.Resources.MemoryUsedPct, report.Resources.DiskUsedPct, report.Resources.Load1)

	for _, lr := range report.LongRunning {
		color.Yellow("Long-running: %s (pid %d, up %s)", lr.Name, lr.PID, lr.Age)
	}

	return nil
}

func runPause(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}

	result, err := d.controller.Pause(pauseActor, pauseKillRunning)
	if err != nil {
		return err
	}
	if !result.Success {
		color.Yellow("%s", result.Message)
		return nil
	}
	color.Green("%s", result.Message)
	return nil
}

func runResume(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}

	result, err := d.controller.Resume()
	if err != nil {
		return err
	}
	if !result.Success {
		color.Yellow("%s", result.Message)
		return nil
	}
	color.Green("%s", result.Message)
	return nil
}

func runPower(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}

	result, err := d.controller.Power(args[0])
	if err != nil {
		return err
	}
	if result.Success {
		color.Green("%s", result.Message)
	} else {
		color.Red("%s", result.Message)
	}
	return nil
}

func runSpawn(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}

	result, err := d.controller.Spawn(args[0])
	if err != nil {
		return err
	}
	if result.Output != "" {
		fmt.Println(result.Output)
	}
	if !result.Success {
		return fmt.Errorf("spawn failed: %s", result.Error)
	}
	color.Green("Spawned %s (run %s)", result.Genome, result.RunID)
	return nil
}

func runCaretaker(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}

	report := d.monitor.Sweep()
	if asJSON {
		return printJSON(report)
	}
	for _, line := range report.Summary {
		fmt.Println(line)
	}
	return nil
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}

	view := d.board.Build()
	if len(view.Entries) == 0 {
		fmt.Println("No rankings yet")
		return nil
	}

	if view.Season != "" {
		fmt.Printf("Season %s\n", view.Season)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tAGENT\tLAB\tRANK\tPOINTS\tFITNESS\tSUCCESS")
	for i, e := range view.Entries {
		if i >= leaderboardTop {
			break
		}
		fitness := "-"
		if e.FitnessScore != nil {
			fitness = fmt.Sprintf("%.2f", *e.FitnessScore)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%.0f%%\n",
			i+1, e.ID, e.LabName, e.Rank, e.Points, fitness, e.SuccessRate)
	}
	w.Flush()

	return nil
}

func runGenomes(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}

	if genomesEnable || genomesDisable {
		if len(args) == 0 {
			return fmt.Errorf("--enable/--disable require a genome name")
		}
		if genomesEnable && genomesDisable {
			return fmt.Errorf("--enable and --disable are mutually exclusive")
		}
		if err := d.roster.Toggle(args[0], genomesEnable); err != nil {
			return err
		}
		if genomesEnable {
			color.Green("Enabled %s", args[0])
		} else {
			color.Yellow("Disabled %s", args[0])
		}
		return nil
	}

	view := d.roster.View(d.board.PointsByID())
	if len(view.Genomes) == 0 {
		fmt.Println("No genomes on disk")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GENOME\tCLI\tSTATE\tSPAWNS\tPOINTS\tLAST ACTIVE")
	for _, g := range view.Genomes {
		state := "on"
		if !g.Enabled {
			state = "off"
		}
		lastActive := g.LastActive
		if lastActive == "" {
			lastActive = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			g.Name, g.CLI, state, g.SpawnsToday, g.PointsEarned, lastActive)
	}
	w.Flush()
	fmt.Printf("\n%d genome(s), %d active today\n", len(view.Genomes), view.ActiveToday)

	return nil
}

// cliSource adapts the wired deps to the TUI's refresh interface.
type cliSource struct {
	d *deps
}

func (s *cliSource) PauseState() *swarm.PauseState  { return s.d.controller.State() }
func (s *cliSource) Health() *caretaker.Report      { return s.d.monitor.Snapshot() }
func (s *cliSource) Leaderboard() *leaderboard.View { return s.d.board.Build() }
func (s *cliSource) Genomes() *genomes.View         { return s.d.roster.View(s.d.board.PointsByID()) }

func runTUI(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}

	model := tui.NewModel(&cliSource{d: d}, d.controller)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	cfg := d.cfg

	store, err := runstore.New(cfg.Paths.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening run store: %w", err)
	}
	defer store.Close()

	port := servePort
	if port == 0 {
		port = cfg.Web.Port
	}
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, port)
	server := api.NewServer(d.controller, d.monitor, d.roster, d.board, store, addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Pick up genome toggles made by other tools.
	if watcher, err := genomes.NewWatcher(d.roster); err != nil {
		log.Printf("[serve] genome watcher: %v", err)
	} else {
		watcher.Start(ctx)
		defer watcher.Stop()
	}

	// Scheduled caretaker sweeps: snapshot, persist, broadcast.
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Caretaker.Schedule, func() {
		report := d.monitor.Sweep()
		if err := store.SaveSnapshot(report); err != nil {
			log.Printf("[serve] saving snapshot: %v", err)
		}
		server.Broadcast(api.SSEEvent{Type: "health_update", Data: report})
	})
	if err != nil {
		return fmt.Errorf("caretaker schedule %q: %w", cfg.Caretaker.Schedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	fmt.Printf("Swarm ops API at http://%s (caretaker every %q)\n", addr, cfg.Caretaker.Schedule)

	select {
	case <-ctx.Done():
		fmt.Println("\nShutting down")
		return nil
	case err := <-errCh:
		return err
	}
}
