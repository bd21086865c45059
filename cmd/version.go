package cmd

import (
	"fmt"
	"runtime"

	"github.com/haierkeys/block-note-service/internal/app"

	"github.com/spf13/cobra"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print out version info and exit. // 打印版本信息并退出。",
	Run: func(cmd *cobra.Command, args []string) {
		if versionShort {
			fmt.Println(app.Version)
			return
		}
		fmt.Printf("%s v%s ( Git:%s ) BuildTime:%s %s\n", app.Name, app.Version, app.GitTag, app.BuildTime, runtime.Version())
	},
}

func init() {
	versionCmd.Flags().BoolVarP(&versionShort, "short", "s", false, "print the version number only")
	rootCmd.AddCommand(versionCmd)
}
