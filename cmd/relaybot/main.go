package main

import (
	"log"

	"github.com/m3rciful/relaybot/core/cmd"
	"github.com/m3rciful/relaybot/internal/bot"
)

func main() {
	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		EnvFiles:          []string{".env"},
		LoadConfig:        bot.LoadCarrier,
		Bootstrap:         bot.Bootstrap,
	})
	if err != nil {
		log.Fatal(err)
	}
}
