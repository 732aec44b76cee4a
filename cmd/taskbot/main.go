package main

import (
	"log"

	"taskbot/core/bootstrap"
	corecmd "taskbot/core/cmd"
	coreconfig "taskbot/core/config"
	"taskbot/internal/bot"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (*coreconfig.Config, error) {
			cfg, err := coreconfig.Load(path)
			if err != nil {
				return nil, err
			}
			if err := coreconfig.ValidateBot(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: func(cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
			// The bot keeps all dialog state in memory; only the API server
			// owns the database.
			if _, err := bootstrap.Run(bootstrap.Options{
				Config:       cfg,
				SkipDatabase: true,
			}); err != nil {
				return nil, err
			}
			return bot.New(cfg)
		},
	})
	if err != nil {
		log.Fatalf("taskbot: %v", err)
	}
}
