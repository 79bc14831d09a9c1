// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright 2021-2025 The FLHet Authors. All rights reserved.
// This file is licensed under the AGPL v3.0 or later license. See LICENSE and
// AUTHORS file for more information.

package config

import (
	"flag"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/spf13/viper"
)

// Configuration holds the post-processed configuration values.
type Configuration struct {
	DebugMode bool `mapstructure:"AGENT_DEBUG"`
	DateTime  bool `mapstructure:"AGENT_LOG_DATETIME"`
	LogColors bool `mapstructure:"AGENT_LOG_COLORS"`

	// How clients are partitioned across capacity levels. Either "fix"
	// (one-time deterministic partition) or "dynamic" (fresh random draw every
	// reassignment).
	SplitMode string `mapstructure:"AGENT_SPLIT_MODE"`

	// Capacity levels and their integer proportions, as "<level><proportion>"
	// tokens joined by "-". For example "a1-b2-c1". The first token names the
	// global model level.
	ModelMode string `mapstructure:"AGENT_MODEL_MODE"`

	// Width rate of each capacity level, as "<level>:<rate>" pairs joined by
	// ",". For example "a:1.0,b:0.5,c:0.25". Rates must be in (0, 1].
	CapacityRates string `mapstructure:"AGENT_CAPACITY_RATES"`

	// Number of simulated clients to assign capacities to.
	NumUsers int `mapstructure:"AGENT_NUM_USERS"`

	// How often the client capacity manifest is recomputed and rewritten.
	ReassignPeriod time.Duration `mapstructure:"AGENT_REASSIGN_PERIOD"`

	// A full evaluation runs only on rounds that are a multiple of
	// EvalInterval, until FinalPhaseRound is reached. From then on every round
	// is evaluated.
	EvalInterval    int `mapstructure:"AGENT_EVAL_INTERVAL"`
	FinalPhaseRound int `mapstructure:"AGENT_FINAL_PHASE_ROUND"`

	// Model weights are persisted every CheckpointInterval qualifying rounds,
	// in files under OutputDir.
	CheckpointInterval int    `mapstructure:"AGENT_CHECKPOINT_INTERVAL"`
	OutputDir          string `mapstructure:"AGENT_OUTPUT_DIR"`

	// Path of the capacity manifest file consumed by the training clients. If
	// ManifestTemplateFile is empty, a built-in template is used.
	ManifestFile         string `mapstructure:"AGENT_MANIFEST_FILE"`
	ManifestTemplateFile string `mapstructure:"AGENT_MANIFEST_TEMPLATE_FILE"`

	HttpServerHost string `mapstructure:"AGENT_HTTP_HOST"`
	HttpServerPort uint   `mapstructure:"AGENT_HTTP_PORT"`
}

// viperBindConfig binds each field of the Configuration struct with its
// corresponding environment variable.
//
// This is necessary because of a bug in the Viper library. See viper's bug
// [188] for more information.
//
// [188]: https://github.com/spf13/viper/issues/188#issuecomment-1273983955
func viperBindConfig() {
	var cfg Configuration

	t := reflect.TypeOf(cfg)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue // Skip field without mapstructure tag.
		}
		// Bind the environment variable.
		_ = viper.BindEnv(tag, tag)
	}
}

// LoadConfig reads configuration from environment variables first, and then
// optionally overwrites with a .env file specified by the --config command line
// argument.
func LoadConfig() (config Configuration, err error) {
	viperBindConfig()

	// Parse command line arguments.
	help := flag.Bool("help", false, "Show help message")
	configPath := flag.String("config", "", "Path to .env file to overwrite env vars")
	flag.Parse()

	if *help {
		fmt.Println("Usage: [--config config.env] [--help]")
		fmt.Println("If --config is provided, values from the file will overwrite environment variables.")
		os.Exit(0)
	}

	viper.AllowEmptyEnv(true)

	// If --config is provided and the file exists, load it and overwrite env
	// vars.
	if *configPath != "" {
		if _, statErr := os.Stat(*configPath); statErr == nil {
			viper.SetConfigFile(*configPath)
			viper.SetConfigType("env")

			// Only overwrite values from the file.
			readErr := viper.ReadInConfig()
			if readErr != nil {
				err = readErr
				return
			}
		} else if !os.IsNotExist(statErr) {
			// If error is not "file does not exist", return statErr
			err = statErr
			return
		}
	}

	err = viper.Unmarshal(&config)
	return
}
