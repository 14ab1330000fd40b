package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calehh/hac-dao/agent"
	"github.com/calehh/hac-dao/app"
	"github.com/calehh/hac-dao/config"
	"github.com/calehh/hac-dao/logging"
	cmtconfig "github.com/cometbft/cometbft/config"
	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	nm "github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/proxy"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type startArguments struct {
	Home  string
	Trace bool
}

var startArgs startArguments

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the DAO node",
	Args:  cobra.NoArgs,
	RunE:  startRun,
}

func init() {
	homeFlag(startCmd, &startArgs.Home)
	startCmd.Flags().BoolVar(&startArgs.Trace, "trace", false, "print stack traces with errors")
}

func loadConfig(home string) (*config.Config, error) {
	cfg := config.DefaultConfig(home)
	v := viper.New()
	v.SetConfigFile(fmt.Sprintf("%s/%s", cfg.RootDir, "config/config.toml"))
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	v.SetConfigFile(cfg.AppConfigFile())
	if err := v.MergeInConfig(); err != nil {
		return nil, fmt.Errorf("reading app config: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.SetRoot(cfg.RootDir)
	cfg.App.Home = cfg.RootDir
	if err := cfg.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid configuration data: %w", err)
	}
	return cfg, nil
}

func startRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(startArgs.Home)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(os.Stdout, cfg.LogFormat, "debug", startArgs.Trace)
	if err != nil {
		return err
	}
	logger, err = cmtflags.ParseLogLevel(cfg.LogLevel, logger, cmtconfig.DefaultLogLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	pv := privval.LoadFilePV(
		cfg.PrivValidatorKeyFile(),
		cfg.PrivValidatorStateFile(),
	)
	nodeKey, err := p2p.LoadNodeKey(cfg.NodeKeyFile())
	if err != nil {
		return fmt.Errorf("failed to load node's key: %w", err)
	}

	daoApp, err := app.NewDAOApp(cfg.App, logger)
	if err != nil {
		return fmt.Errorf("new app: %w", err)
	}

	node, err := nm.NewNode(
		cfg.Config,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(daoApp),
		nm.DefaultGenesisDocProviderFunc(cfg.Config),
		cmtconfig.DefaultDBProvider,
		nm.DefaultMetricsProvider(cfg.Instrumentation),
		logger,
	)
	if err != nil {
		daoApp.Stop()
		return fmt.Errorf("creating node: %w", err)
	}
	if err = node.Start(); err != nil {
		daoApp.Stop()
		return fmt.Errorf("start comet node: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.App.IndexerEnabled {
		if err = startIndexer(ctx, cfg, logger); err != nil {
			logger.Error("indexer disabled", "err", err)
		}
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	cancel()

	logger.Info("shutting down")
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := node.Stop(); err != nil {
			logger.Error("stop comet node fail", "err", err)
		}
		node.Wait()
		daoApp.Stop()
	}()
	select {
	case <-time.After(10 * time.Second):
		return fmt.Errorf("shutdown timed out")
	case <-done:
		return nil
	}
}

func startIndexer(ctx context.Context, cfg *config.Config, logger cmtlog.Logger) error {
	rpcUrl, err := url.Parse(cfg.RPC.ListenAddress)
	if err != nil {
		return err
	}
	rpcUrl.Scheme = "http"

	var relay agent.Relay = agent.NopRelay{}
	if cfg.App.RelayURL != "" {
		relay = agent.NewHTTPRelay(cfg.App.RelayURL, cfg.App.RelayTimeout, logger)
	}
	indexer, err := agent.NewChainIndexer(logger, cfg.App.IndexerDBPath(), rpcUrl.String(), relay, cfg.App.IndexerInterval)
	if err != nil {
		return err
	}
	go func() {
		indexer.Start(ctx)
		indexer.Close()
	}()

	service := agent.NewService(cfg.App.AgentListenAddr, indexer, logger)
	go func() {
		if err := service.Start(ctx); err != nil {
			logger.Error("agent service stopped", "err", err)
		}
	}()
	return nil
}
