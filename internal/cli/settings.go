package cli

import (
	"greetr/internal/config"
)

// configPath returns the --config value, GREETR_CONFIG, or the default path
func (o *rootOptions) configPath() string {
	if o.cfgFile != "" {
		return o.cfgFile
	}
	return config.DefaultPath()
}

// loadConfig layers flags over environment over the config file over
// defaults. A missing file is only an error when it was named explicitly.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	svc := config.NewConfigService(o.configPath())

	var (
		cfg *config.Config
		err error
	)
	if o.cfgFile != "" {
		cfg, err = svc.LoadFromPath(o.cfgFile)
	} else {
		cfg, err = svc.Load()
	}
	if err != nil {
		return nil, err
	}

	o.v.SetDefault("endpoint", cfg.Endpoint)
	o.v.SetDefault("request_timeout", cfg.RequestTimeout)
	o.v.SetDefault("log_file", cfg.LogFile)
	o.v.SetDefault("log_level", cfg.LogLevel)
	o.v.SetDefault("metrics_addr", cfg.MetricsAddr)
	o.v.SetDefault("ui.show_stats", cfg.UISettings.ShowStats)
	o.v.SetDefault("ui.placeholder", cfg.UISettings.Placeholder)
	o.v.SetDefault("ui.fetch_on_start", cfg.UISettings.FetchOnStart)

	cfg.Endpoint = o.v.GetString("endpoint")
	cfg.RequestTimeout = o.v.GetString("request_timeout")
	cfg.LogFile = o.v.GetString("log_file")
	cfg.LogLevel = o.v.GetString("log_level")
	cfg.MetricsAddr = o.v.GetString("metrics_addr")
	cfg.UISettings.ShowStats = o.v.GetBool("ui.show_stats")
	cfg.UISettings.Placeholder = o.v.GetString("ui.placeholder")
	cfg.UISettings.FetchOnStart = o.v.GetBool("ui.fetch_on_start")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
