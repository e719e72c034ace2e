package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/denisblondeau/AzureWebPubSubDemo-Publisher/internal/auth"
	"github.com/denisblondeau/AzureWebPubSubDemo-Publisher/internal/common/cnst"
	"github.com/denisblondeau/AzureWebPubSubDemo-Publisher/internal/common/config"
	"github.com/denisblondeau/AzureWebPubSubDemo-Publisher/internal/session"
	"github.com/denisblondeau/AzureWebPubSubDemo-Publisher/pkg/logger"
	"github.com/denisblondeau/AzureWebPubSubDemo-Publisher/pkg/version"
)

var (
	configPath string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of publisher",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("publisher version %s\n", version.Get())
		},
	}

	rootCmd = &cobra.Command{
		Use:   cnst.CommandName,
		Short: "Azure Web PubSub demo publisher",
		Long: `Connects to an Azure Web PubSub hub and publishes lines typed on stdin
to a group. Received group messages are printed to stdout, connection
activity to stderr. /join, /leave and /quit are understood as commands.`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", cnst.PublisherYaml, "path to configuration file")
	rootCmd.AddCommand(versionCmd)
}

// consoleObserver renders the two transcript streams; presentation glue
// only, no session logic.
type consoleObserver struct{}

func (consoleObserver) ActivityInformation(entry string) {
	fmt.Fprint(os.Stderr, entry)
}

func (consoleObserver) MessageReceived(entry string) {
	fmt.Fprint(os.Stdout, entry)
}

func run() {
	cfg, cfgPath, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting publisher",
		zap.String("version", version.Get()),
		zap.String("config", cfgPath),
		zap.String("hub", cfg.PubSub.Hub),
		zap.String("group", cfg.PubSub.Group))

	issuer, err := auth.NewService(cfg.PubSub.AccessKey)
	if err != nil {
		zapLogger.Fatal("failed to create token service", zap.Error(err))
	}

	sess := session.New(zapLogger, cfg.PubSub, issuer, consoleObserver{})
	// Deterministic teardown: the going-away close frame is sent exactly
	// once, on any exit path.
	defer sess.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sess.Connect(ctx); err != nil {
		zapLogger.Error("connection attempt failed", zap.Error(err))
		return
	}

	inputDone := make(chan struct{})
	go func() {
		defer close(inputDone)
		readInput(sess)
	}()

	select {
	case <-ctx.Done():
		zapLogger.Info("shutting down on signal")
	case <-inputDone:
		zapLogger.Info("shutting down on input close")
	}
}

// readInput forwards stdin lines to the session until EOF or /quit.
func readInput(sess *session.Session) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "/quit":
			return
		case "/join":
			sess.JoinGroup()
		case "/leave":
			sess.LeaveGroup()
		default:
			sess.SendMessage(line)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
