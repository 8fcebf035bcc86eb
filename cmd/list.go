package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"

	"github.com/achterblog/fzpwuploader/cmd/common"
	"github.com/achterblog/fzpwuploader/internal/history"
)

var (
	histLimit int
	histClear bool
	histURLs  bool

	histFlags = []cli.Flag{
		cli.IntFlag{
			Name:        "limit, n",
			Usage:       "number of uploads to list (0 lists all)",
			Value:       25,
			Destination: &histLimit,
		},
		cli.BoolFlag{
			Name:        "urls-only, q",
			Usage:       "print only the URLs, one per line",
			Destination: &histURLs,
		},
		cli.BoolFlag{
			Name:        "clear",
			Usage:       "delete the upload history",
			Destination: &histClear,
		},
	}
)

func listHistory(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	e, err := loadEnv()
	if err != nil {
		common.PrintRuntimeErr(ctx, "history", "load_config", err)
		return nil
	}
	st, err := history.Open(e.dir)
	if err != nil {
		common.PrintRuntimeErr(ctx, "history", "open", err)
		return nil
	}
	defer st.Close()
	if histClear {
		if err := st.Clear(context.Background()); err != nil {
			common.PrintRuntimeErr(ctx, "history", "clear", err)
			return nil
		}
		fmt.Println("fzpwup: upload history cleared")
		return nil
	}
	entries, err := st.List(context.Background(), histLimit)
	if err != nil {
		common.PrintRuntimeErr(ctx, "history", "list", err)
		return nil
	}
	if len(entries) == 0 {
		fmt.Println("fzpwup: no uploads found")
		return nil
	}
	if histURLs {
		for _, en := range entries {
			fmt.Println(en.URL)
		}
		return nil
	}
	txt := "Here are your uploads:"
	txt += "\n\n----------------------------------------------------------------"
	txt += "\n|Num|          File           |   Size   |      Uploaded      |"
	txt += "\n|---|-------------------------|----------|--------------------|"
	for i, en := range entries {
		name := common.Beaut(common.Truncate(filepath.Base(en.File), 23), 23)
		size := common.Beaut(humanize.IBytes(uint64(en.Size)), 8)
		when := common.Beaut(humanize.Time(en.UploadedAt), 18)
		txt += fmt.Sprintf("\n|%3d| %s | %s | %s |", i+1, name, size, when)
		txt += "\n|   |  " + en.URL
	}
	txt += "\n----------------------------------------------------------------"
	fmt.Println(txt)
	return nil
}
