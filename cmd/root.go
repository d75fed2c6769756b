package cmd

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	dsn        string
	DB         *sql.DB
	SchemaName string // target database schema; empty means "decide later"
	cfgFile    string
	DriverName string
)

var RootCmd = &cobra.Command{
	Use:   "protovet",
	Short: "Validate protobuf contracts against live database schemas",
	Long: `
                 _                  _
  _ __  _ __ ___| |_ _____   _____| |_
 | '_ \| '__/ _ \ __/ _ \ \ / / _ \ __|
 | |_) | | | (_) | || (_) \ V /  __/ |_
 | .__/|_|  \___/ \__\___/ \_/ \___|\__|
 |_|

protovet - catch drift between .proto contracts and your database schema
`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Prefer an active database block from the config file; fall back
		// to the dsn flag (Flag > Config > Default via Viper).
		connStr := viper.GetString("database.dsn")
		if active, err := GetActiveDBConfig(); err == nil {
			if active.DSN != "" {
				connStr = active.DSN
			}
			if active.Driver != "" {
				DriverName = active.Driver
			}
		}
		if connStr == "" {
			return fmt.Errorf("database.dsn is required (via flag or config)")
		}

		if DriverName == "" {
			DriverName = viper.GetString("database.driver")
		}
		if DriverName == "" {
			if strings.Contains(connStr, "postgres") || strings.Contains(connStr, "sslmode") {
				DriverName = "postgres"
			} else if strings.Contains(connStr, "sqlserver") {
				DriverName = "sqlserver"
			} else {
				DriverName = "mysql"
			}
		}

		var err error
		DB, err = sql.Open(DriverName, connStr)
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		if err := DB.Ping(); err != nil {
			return fmt.Errorf("failed to connect to db: %w", err)
		}

		SchemaName = viper.GetString("database.schema")
		if SchemaName == "" && DriverName == "mysql" {
			if err := DB.QueryRow("SELECT DATABASE()").Scan(&SchemaName); err != nil {
				return fmt.Errorf("failed to get database name: %w", err)
			}
			if SchemaName == "" {
				return fmt.Errorf("no database selected in DSN")
			}
		}

		return nil
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./protovet.yaml)")
	RootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Database Source Name (DSN)")
	RootCmd.PersistentFlags().String("driver", "", "Database driver (postgres, mysql, sqlserver, oracle)")
	RootCmd.PersistentFlags().String("db-schema", "", "Database schema to introspect (default depends on driver)")

	viper.BindPFlag("database.dsn", RootCmd.PersistentFlags().Lookup("dsn"))
	viper.BindPFlag("database.driver", RootCmd.PersistentFlags().Lookup("driver"))
	viper.BindPFlag("database.schema", RootCmd.PersistentFlags().Lookup("db-schema"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		ex, err := os.Executable()
		if err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}

		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("protovet")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
