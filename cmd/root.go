// Package cmd 命令行入口：run / upgrade / version
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// configDefault 内置默认配置，找不到配置文件时写出
var configDefault string

var rootCmd = &cobra.Command{
	Use:   "revision-service",
	Short: "Medical Reference Revision Service",
	Long:  "Versioned article storage: every write records an immutable revision that can be listed, diffed and restored.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute 执行根命令，defaultConfig 为内置的默认配置内容
func Execute(defaultConfig string) {
	configDefault = defaultConfig
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
