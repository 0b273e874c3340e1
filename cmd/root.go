/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"memforensics/internal"
	"memforensics/internal/report"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	FlagDir       = "dir"
	FlagOutput    = "output"
	FlagTopMemory = "top-mem"
	FlagTopHandle = "top-handle"
)

var (
	cfgFile   string
	dir       string
	output    string
	topMemory int
	topHandle int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "memforensics",
	Short: "系統資源鑑識報告產生器",
	Long: "讀取目前目錄下採集代理程式輸出的*_log.csv記錄檔，合併後產生一份互動式HTML報告，\n" +
		"包含四張時間序列圖：總記憶體使用量、核心集區使用量、前幾大記憶體佔用程序、\n" +
		"前幾大控制代碼佔用程序。不帶任何參數執行即可。",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return report.Generate(&report.Options{
			Dir:        dir,
			OutputFile: output,
			TopMemory:  topMemory,
			TopHandle:  topHandle,
		})
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.memforensics.yaml)")

	rootCmd.Flags().StringVarP(&dir, FlagDir, "d", ".",
		"記錄檔所在目錄，報告也輸出到此目錄")
	rootCmd.Flags().StringVarP(&output, FlagOutput, "o", internal.OutputFileName,
		"輸出的HTML報告檔名")
	rootCmd.Flags().IntVar(&topMemory, FlagTopMemory, internal.DefaultTopMemory,
		"記憶體面板保留的程序數量，依期間內最大佔用值排名")
	rootCmd.Flags().IntVar(&topHandle, FlagTopHandle, internal.DefaultTopHandle,
		"控制代碼面板保留的程序數量，依期間內最大佔用值排名")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".memforensics" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".memforensics")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
