package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/nsyszr/quakedb/config"
	"github.com/nsyszr/quakedb/pkg/cmd/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string
var c = new(config.Config)
var cmdHandler = cli.NewHandler(c)

var (
	Version   = "dev-master"
	BuildTime = "undefined"
	GitHash   = "undefined"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "quakedb",
	Short: "Earthquake record keeping (search, edit, CSV import)",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(cmd.UsageString())
		os.Exit(2)
	},
}

// Execute runs quakedb and is called by main.main()
func Execute() {
	c.BuildTime = BuildTime
	c.BuildVersion = Version
	c.BuildHash = GitHash

	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.quakedb.yml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// enable ability to specify config file via flag
		viper.SetConfigFile(cfgFile)
	} else {
		path := absPathify("$HOME")
		if _, err := os.Stat(filepath.Join(path, ".quakedb.yml")); err != nil {
			_, _ = os.Create(filepath.Join(path, ".quakedb.yml"))
		}

		viper.SetConfigType("yaml")
		viper.SetConfigName(".quakedb") // name of config file (without extension)
		viper.AddConfigPath("$HOME")    // adding home directory as first search path
	}
	viper.AutomaticEnv() // read in environment variables that match

	// Fetch settings
	viper.BindEnv("PORT")
	viper.SetDefault("PORT", 8080)

	viper.BindEnv("HOST")
	viper.SetDefault("HOST", "")

	viper.BindEnv("DATABASE_URL")
	viper.SetDefault("DATABASE_URL", config.MemoryDatabaseURL)

	viper.BindEnv("DB_CONNECT_TIMEOUT")
	viper.SetDefault("DB_CONNECT_TIMEOUT", 10*time.Second)

	viper.BindEnv("DB_MAX_OPEN_CONNS")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 10)

	// Record events are only published when a NATS server is configured
	viper.BindEnv("NATS_URL")
	viper.SetDefault("NATS_URL", "")

	viper.BindEnv("LOG_LEVEL")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.BindEnv("SHUTDOWN_TIMEOUT")
	viper.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf(`Config file not found because "%s"`, err)
		fmt.Println("")
	}

	if err := viper.Unmarshal(c); err != nil {
		log.Fatal(fmt.Sprintf("Could not read config because %s.", err))
	}
}

func absPathify(inPath string) string {
	if strings.HasPrefix(inPath, "$HOME") {
		inPath = userHomeDir() + inPath[5:]
	}

	if strings.HasPrefix(inPath, "$") {
		end := strings.Index(inPath, string(os.PathSeparator))
		inPath = os.Getenv(inPath[1:end]) + inPath[end:]
	}

	if filepath.IsAbs(inPath) {
		return filepath.Clean(inPath)
	}

	p, err := filepath.Abs(inPath)
	if err == nil {
		return filepath.Clean(p)
	}
	return ""
}

func userHomeDir() string {
	if runtime.GOOS == "windows" {
		home := os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
		if home == "" {
			home = os.Getenv("USERPROFILE")
		}
		return home
	}
	return os.Getenv("HOME")
}
