// Copyright 2026 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/victoriarmitchell/fraud-detection/cmd/util"
)

func main() {
	opts := util.NewOptions()
	rootCmd := &cobra.Command{
		Use:   "fraud-train",
		Short: "Train the fraud detection model from params.yaml",
		Long: "Generate the synthetic fraud dataset, train a logistic regression model with the " +
			"parameters of params.yaml, evaluate it and save it to the path of the target platform.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := opts.Run(cmd.Context(), cmd.OutOrStdout(), nil)
			return err
		},
	}
	opts.AddFlags(rootCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		stop()
		os.Exit(util.ExitCodeExecuteFailed)
	}
}
