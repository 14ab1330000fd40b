package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/ethereum/go-ethereum/common"
	eth_crypto "github.com/ethereum/go-ethereum/crypto"
)

const (
	DefaultHomeDir   = ".daod"
	OwnerKeyFile     = "owner_priv_key"
	AppConfigFile    = "app.toml"
	DefaultAgentAddr = "127.0.0.1:8686"
)

// AppConfig is the [app] section of app.toml.
type AppConfig struct {
	Home string `mapstructure:"-"`

	IndexerEnabled  bool          `mapstructure:"indexer_enabled"`
	IndexerDB       string        `mapstructure:"indexer_db"`
	IndexerInterval time.Duration `mapstructure:"indexer_interval"`
	AgentListenAddr string        `mapstructure:"agent_listen_addr"`
	RelayURL        string        `mapstructure:"relay_url"`
	RelayTimeout    time.Duration `mapstructure:"relay_timeout"`
}

func DefaultAppConfig(home string) *AppConfig {
	return &AppConfig{
		Home:            home,
		IndexerEnabled:  false,
		IndexerDB:       "data/indexer.db",
		IndexerInterval: 2 * time.Second,
		AgentListenAddr: DefaultAgentAddr,
		RelayTimeout:    10 * time.Second,
	}
}

func (c *AppConfig) DataDir() string {
	return filepath.Join(c.Home, "data")
}

func (c *AppConfig) IndexerDBPath() string {
	if filepath.IsAbs(c.IndexerDB) {
		return c.IndexerDB
	}
	return filepath.Join(c.Home, c.IndexerDB)
}

func (c *AppConfig) ValidateBasic() error {
	if c.IndexerInterval <= 0 {
		return fmt.Errorf("indexer_interval must be positive")
	}
	if c.RelayURL != "" && c.RelayTimeout <= 0 {
		return fmt.Errorf("relay_timeout must be positive")
	}
	return nil
}

type Config struct {
	*config.Config `mapstructure:",squash"`

	App *AppConfig `mapstructure:"app"`
}

func DefaultHome() string {
	return os.ExpandEnv("$HOME/" + DefaultHomeDir)
}

func DefaultConfig(home string) *Config {
	if len(home) == 0 {
		home = DefaultHome()
	}
	config := &Config{
		DefaultDAOCometConfig(),
		DefaultAppConfig(home),
	}
	config.SetRoot(home)
	return config
}

func (c *Config) ValidateBasic() error {
	if err := c.Config.ValidateBasic(); err != nil {
		return err
	}
	return c.App.ValidateBasic()
}

func (c *Config) AppConfigFile() string {
	return filepath.Join(c.RootDir, config.DefaultConfigDir, AppConfigFile)
}

func (c *Config) OwnerKeyFile() string {
	return filepath.Join(c.RootDir, config.DefaultConfigDir, OwnerKeyFile)
}

// InitializeOwner generates the chairperson key and stores it hex encoded
// next to the node configuration.
func InitializeOwner(c *Config) (owner common.Address, err error) {
	priv, err := eth_crypto.GenerateKey()
	if err != nil {
		return
	}
	key := hex.EncodeToString(eth_crypto.FromECDSA(priv))
	if err = os.MkdirAll(filepath.Dir(c.OwnerKeyFile()), 0o700); err != nil {
		return
	}
	if err = os.WriteFile(c.OwnerKeyFile(), []byte(key), 0o600); err != nil {
		return owner, fmt.Errorf("write owner key: %w", err)
	}
	owner = eth_crypto.PubkeyToAddress(priv.PublicKey)
	return
}

func InitializeNodeValidatorFiles(config *Config, privKey crypto.PrivKey) (nodeID string, pk crypto.PubKey, err error) {
	nodeKey, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return "", nil, err
	}
	nodeID = string(nodeKey.ID())

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvKeyFile), err)
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvStateFile), err)
	}

	var filePV *privval.FilePV
	if privKey == nil {
		filePV = privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	} else {
		filePV = privval.NewFilePV(privKey, pvKeyFile, pvStateFile)
		filePV.Save()
	}
	pukey, err := filePV.GetPubKey()
	if err != nil {
		return "", nil, err
	}

	return nodeID, pukey, nil
}

func DefaultDAOCometConfig() *config.Config {
	cometConfig := config.DefaultConfig()
	cometConfig.Consensus.TimeoutPropose = time.Second * 3
	cometConfig.Consensus.TimeoutPrevote = time.Second * 1
	cometConfig.Consensus.TimeoutPrecommit = time.Second * 1
	cometConfig.Consensus.TimeoutCommit = time.Millisecond * 1200
	cometConfig.Instrumentation.Prometheus = true
	return cometConfig
}
