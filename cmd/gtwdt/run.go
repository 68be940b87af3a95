package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gordian-engine/gtwdt/gapp"
	"github.com/gordian-engine/gtwdt/gindicator"
	"github.com/gordian-engine/gtwdt/gindicator/gperiph"
	"github.com/gordian-engine/gtwdt/grecovery"
	"github.com/gordian-engine/gtwdt/internal/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "GTWDT"

func NewRunCmd(log *slog.Logger) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use: "run",

		Short: "Run the watchdog demo until interrupted",

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			if path := v.GetString("config"); path != "" {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("failed to read config file %q: %w", path, err)
				}
				log.Info("Using config file", "path", v.ConfigFileUsed())
			}

			runLog, err := glog.New(cmd.ErrOrStderr(), v.GetString("log-format"), v.GetString("log-level"))
			if err != nil {
				return err
			}

			cfg, err := configFromViper(v)
			if err != nil {
				return err
			}

			var d gindicator.Driver
			switch ind := v.GetString("indicator"); ind {
			case "memory":
				d = gindicator.NewMemoryDriver()
			case "gpio":
				pd, err := gperiph.New()
				if err != nil {
					return err
				}
				d = pd
			default:
				return fmt.Errorf("invalid indicator backend %q (want memory or gpio)", ind)
			}

			a, err := gapp.Start(cmd.Context(), runLog, cfg, d)
			if err != nil {
				return err
			}
			if addr := a.HTTPAddr(); addr != nil {
				runLog.Info("Status server started", "addr", addr.String())
			}

			return a.Wait()
		},
	}

	flags := cmd.Flags()
	flags.String("variant", string(grecovery.VariantMulti), "recovery variant (single|multi)")
	flags.Duration("timeout", gapp.DefaultTimeout, "watchdog window")
	flags.Bool("trigger-panic", false, "stop the demo with an error on the first missed deadline")
	flags.String("indicator", "memory", "indicator backend (memory|gpio)")
	flags.String("journal", "", "path to a sqlite recovery journal (in memory if empty)")
	flags.String("http-addr", "", "listen address of the status server (disabled if empty)")
	flags.String("log-format", "text", "log format (text|json)")
	flags.String("log-level", "info", "log level (debug|info|warn|error)")
	flags.String("config", "", "optional config file (yaml, toml or json) with the same keys as the flags")

	if err := v.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("failed to bind run flags: %w", err))
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return cmd
}

func configFromViper(v *viper.Viper) (gapp.Config, error) {
	variant, err := grecovery.ParseVariant(v.GetString("variant"))
	if err != nil {
		return gapp.Config{}, err
	}

	cfg := gapp.DefaultConfig(variant)
	cfg.Timeout = v.GetDuration("timeout")
	cfg.TriggerPanic = v.GetBool("trigger-panic")
	cfg.JournalPath = v.GetString("journal")
	cfg.HTTPAddr = v.GetString("http-addr")

	return cfg, nil
}
