/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomoncle/roster"
	"github.com/tomoncle/roster/config"
	"github.com/tomoncle/roster/utils"
)

func main() {
	configFile := flag.String("config", utils.EnvDefaultString("CONFIG_FILE", ""), "path to the YAML configuration file")
	flag.Parse()

	log := utils.NewLogger("MAIN")

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := roster.New(ctx, cfg)
	if err != nil {
		log.Fatalf("start: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Errorf("close database: %v", err)
		}
	}()

	if _, err := app.Seed(ctx); err != nil {
		log.Errorf("seed: %v", err)
		return
	}
	if err := app.Run(ctx); err != nil {
		log.Errorf("serve: %v", err)
	}
}
