package cmd

import (
	"fmt"

	"github.com/spf13/viper"

	"protovet/internal/naming"
	"protovet/internal/reconcile"
)

type DBConfig struct {
	Name   string `mapstructure:"name"`
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Active bool   `mapstructure:"active"`
}

// GetActiveDBConfig returns the currently active database configuration.
func GetActiveDBConfig() (*DBConfig, error) {
	var configs []DBConfig

	if err := viper.UnmarshalKey("databases", &configs); err != nil {
		return nil, fmt.Errorf("failed to parse databases config: %w", err)
	}

	var activeConfig *DBConfig
	count := 0

	for i := range configs {
		if configs[i].Active {
			activeConfig = &configs[i]
			count++
		}
	}

	if count == 0 {
		return nil, fmt.Errorf("no active database found in config (set active: true)")
	}
	if count > 1 {
		return nil, fmt.Errorf("multiple active databases found (only one can be active)")
	}

	return activeConfig, nil
}

// vetResolver builds the name resolver from the naming.* config section.
// extraOverrides (from flags like --table) win over file-level overrides.
func vetResolver(extraOverrides map[string]string) naming.Resolver {
	overrides := viper.GetStringMapString("naming.overrides")
	if overrides == nil {
		overrides = map[string]string{}
	}
	for k, v := range extraOverrides {
		overrides[k] = v
	}
	return naming.NewResolver(naming.ParseConvention(viper.GetString("naming.convention")), overrides)
}

// vetOptions builds the reconciliation options from the vet.* and naming.*
// config sections.
func vetOptions() reconcile.Options {
	return reconcile.Options{
		ReportExtraColumns: viper.GetBool("vet.report_extra_columns"),
		EmbeddingPolicy:    reconcile.ParseEmbeddingPolicy(viper.GetString("vet.embedding_policy")),
		CaseSensitive:      viper.GetBool("naming.case_sensitive"),
	}
}
