package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KNICEX/stock-alert/internal/repo"
	"github.com/KNICEX/stock-alert/ioc"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func initViper() {
	// --config=./config/xxx.yaml
	file := pflag.String("config", "./config/config.dev.yaml", "specify config file")
	pflag.CommandLine.SetInterspersed(false)
	pflag.Parse()

	// .env 可选
	_ = godotenv.Load()

	ioc.InitEnv()

	viper.SetConfigFile(*file)
	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s \n", err))
	}
}

func main() {
	initViper()

	logger := ioc.InitLogger()
	defer logger.Sync()

	db := ioc.InitDB(logger)
	alertRepo := repo.NewAlertRepo(db, logger.Named("repo"))
	oracle := ioc.InitPriceOracle()
	task := ioc.InitMonitorTask(alertRepo, oracle, logger)

	app := &cli{
		alerts: ioc.InitAlertService(alertRepo, logger),
		task:   task,
		runner: ioc.InitMonitor(task, logger),
		out:    os.Stdout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.run(ctx, pflag.Args()); err != nil {
		logger.Error("command failed", zap.Strings("args", pflag.Args()), zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(exitCode(err))
	}
}
