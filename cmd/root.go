package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/laityts/iptest/config"
	"github.com/laityts/iptest/pkg/tools/logger"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "iptest",
	Short: "iptest proxy verification and scoring tool",
}

func Execute() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "./config.yaml", "config file")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.SetEnvPrefix("IPTEST")
	viper.AutomaticEnv()

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	_ = rootCmd.Execute()
}

// loadConfig loads the config file (or defaults when absent) and brings the
// logger up with its settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(viper.GetString("config"))
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Config{
		Level:  logger.LogLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})
	return cfg, nil
}
