package main

import (
	"github.com/hopgraph/hopgraph/internal/server"
	"github.com/hopgraph/hopgraph/internal/util"
	"github.com/hopgraph/hopgraph/pkg/logger"
	"github.com/hopgraph/hopgraph/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
