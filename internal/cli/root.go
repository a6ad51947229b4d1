package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	defaultServer  = "http://localhost:3000"
	defaultTimeout = 10 * time.Second
)

// NewRootCommand builds the claimctl command tree.
//
// Settings resolve from flags, then CLAIMRISK_* environment variables, then an
// optional config file, then defaults.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "claimctl",
		Short: "claimctl - submit claims to a claim-risk server",
		Long: `claimctl submits claim details to a running claim-risk server and prints
the fraud risk prediction it returns. All scoring happens on the server.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml)")
	root.PersistentFlags().String("server", defaultServer, "claim-risk server base URL")
	root.PersistentFlags().Duration("timeout", defaultTimeout, "request timeout")
	_ = v.BindPFlag("server", root.PersistentFlags().Lookup("server"))
	_ = v.BindPFlag("timeout", root.PersistentFlags().Lookup("timeout"))

	root.AddCommand(newAnalyzeCommand(v))
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

func initConfig(v *viper.Viper, cfgFile string) error {
	v.SetEnvPrefix("CLAIMRISK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile == "" {
		return nil
	}
	v.SetConfigFile(cfgFile)
	return v.ReadInConfig()
}
