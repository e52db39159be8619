// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gorse-io/tuner/base/log"
	"github.com/gorse-io/tuner/base/progress"
	"github.com/gorse-io/tuner/cmd/version"
	"github.com/gorse-io/tuner/config"
)

var (
	conf   *config.Config
	tracer = progress.NewTracer("gorse-tuner")
)

var rootCommand = &cobra.Command{
	Use:           "gorse-tuner",
	Short:         "Hyper-parameter search for rating prediction models.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// setup logger
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
		// load config
		configPath, _ := cmd.Flags().GetString("config")
		if configPath != "" {
			log.Logger().Info("load config", zap.String("config", configPath))
		}
		var err error
		if conf, err = config.LoadConfig(configPath); err != nil {
			return err
		}
		// draw progress bars
		if showProgress, _ := cmd.Flags().GetBool("progress"); showProgress {
			tracer.SetRenderer(os.Stderr)
		}
		return nil
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show the version of gorse-tuner.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(version.BuildInfo())
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.PersistentFlags().Bool("progress", false, "draw progress bars")
	rootCommand.AddCommand(versionCommand)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCommand.ExecuteContext(ctx); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
