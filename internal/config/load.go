package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. GHSEC_FIX=true or
	// GHSEC_REPOSITORY_SECRETS_WARN_SECRET_NAMES=KEY$.
	EnvPrefix = "GHSEC"

	configName = "ghsec"
	configType = "yaml"
)

// Loaded describes where the configuration came from.
type Loaded struct {
	ConfigFileUsed string
}

// SearchPaths lists the directories probed for ghsec.yaml when no explicit
// config file is given.
func SearchPaths() []string {
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		paths = append(paths, filepath.Join(dir, "ghsec"))
	}
	return paths
}

// Load fills cfg from, in increasing precedence: cfg's current values, the
// config file, GHSEC_* environment variables and flags the user set
// explicitly. bindings maps flag names in fs to configuration keys; flags
// missing from fs are skipped.
//
// Load does not validate; call Validate on the result.
func Load(configFile string, fs *pflag.FlagSet, bindings map[string]string, cfg *Config) (Loaded, error) {
	if cfg == nil {
		return Loaded{}, errors.New("config: cfg is nil")
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	for _, p := range SearchPaths() {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v, cfg)

	if fs != nil {
		for flagName, key := range bindings {
			f := fs.Lookup(flagName)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Loaded{}, fmt.Errorf("bind flag --%s: %w", flagName, err)
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Loaded{}, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return Loaded{}, fmt.Errorf("failed to parse configuration: %w", err)
	}

	return Loaded{ConfigFileUsed: v.ConfigFileUsed()}, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it even when
// neither a flag nor the config file mentions it.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("checks", cfg.Checks)
	v.SetDefault("fix", cfg.Fix)
	v.SetDefault("repository_secrets.warn_secret_names", cfg.RepositorySecrets.WarnSecretNames)
	v.SetDefault("default_workflow_permissions.permission", cfg.DefaultWorkflowPermissions.Permission)
	v.SetDefault("default_workflow_permissions.can_approve_pull_request_reviews", cfg.DefaultWorkflowPermissions.CanApprovePullRequestReviews)
	v.SetDefault("targeting.include", cfg.Targeting.Include)
	v.SetDefault("targeting.exclude", cfg.Targeting.Exclude)
	v.SetDefault("targeting.visibility", cfg.Targeting.Visibility)
	v.SetDefault("targeting.archived", cfg.Targeting.Archived)
	v.SetDefault("targeting.forks", cfg.Targeting.Forks)
	v.SetDefault("targeting.max_repos", cfg.Targeting.MaxRepos)
	v.SetDefault("log.debug", cfg.Log.Debug)
	v.SetDefault("log.json", cfg.Log.JSON)
	v.SetDefault("runtime.concurrency", cfg.Runtime.Concurrency)
	v.SetDefault("runtime.timeout", cfg.Runtime.Timeout)
	v.SetDefault("runtime.verbose", cfg.Runtime.Verbose)
}
