// Package cmd implements the fzpwup command line interface.
package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"

	"github.com/achterblog/fzpwuploader/cmd/common"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

var currentBuildArgs BuildArgs

func Execute(args []string, bArgs BuildArgs) error {
	currentBuildArgs = bArgs
	app := cli.App{
		Name:                  "fzpwup",
		HelpName:              "fzpwup",
		Usage:                 "Uploads pictures to the Freizeitparkweb forum.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "fzpwup <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Commands: []cli.Command{
			{
				Name:                   "upload",
				Aliases:                []string{"u"},
				Usage:                  "upload pictures and print their URLs",
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				OnUsageError:           common.UsageErrorCallback,
				Action:                 upload,
				Flags:                  upFlags,
				UseShortOptionHandling: true,
				Description:            UploadDescription,
			},
			{
				Name:        "credentials",
				Aliases:     []string{"cred"},
				Usage:       "manage the stored forum password",
				Description: CredentialsDescription,
				Subcommands: []cli.Command{
					{
						Name:               "save",
						Usage:              "store the password of a user",
						Action:             credentialsSave,
						OnUsageError:       common.UsageErrorCallback,
						CustomHelpTemplate: CMD_HELP_TEMPL,
						Flags:              credSaveFlags,
					},
					{
						Name:               "show",
						Usage:              "tell where the password of a user is stored",
						Action:             credentialsShow,
						OnUsageError:       common.UsageErrorCallback,
						CustomHelpTemplate: CMD_HELP_TEMPL,
						Flags:              credFlags,
					},
					{
						Name:               "forget",
						Usage:              "delete the stored password of a user",
						Action:             credentialsForget,
						OnUsageError:       common.UsageErrorCallback,
						CustomHelpTemplate: CMD_HELP_TEMPL,
						Flags:              credFlags,
					},
				},
			},
			{
				Name:                   "history",
				Aliases:                []string{"l"},
				Usage:                  "list uploaded pictures",
				Description:            HistoryDescription,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Action:                 listHistory,
				UseShortOptionHandling: true,
				Flags:                  histFlags,
			},
			{
				Name:               "config",
				Usage:              "print the effective configuration",
				Description:        ConfigDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             showConfig,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of fzpwup",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		Action:                 upload,
		Flags:                  upFlags,
		UseShortOptionHandling: true,
		HideHelp:               true,
		HideVersion:            true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}

// userAgent is the User-Agent sent to the forum unless configured.
func userAgent() string {
	v := currentBuildArgs.Version
	if v == "" {
		v = "dev"
	}
	return "fzpwup/" + v
}
