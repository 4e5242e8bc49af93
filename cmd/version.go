package cmd

import (
	"fmt"
	"runtime"

	"github.com/medref/revision-service/internal/app"

	"github.com/spf13/cobra"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version info and exit // 打印版本信息并退出",
	Run: func(cmd *cobra.Command, args []string) {
		if versionShort {
			fmt.Fprintln(cmd.OutOrStdout(), "v"+app.Version)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "revision-service v%s\n  git:   %s\n  built: %s\n  go:    %s %s/%s\n",
			app.Version, app.GitTag, app.BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	versionCmd.Flags().BoolVarP(&versionShort, "short", "s", false, "print only the version number")
	rootCmd.AddCommand(versionCmd)
}
