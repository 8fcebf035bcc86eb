package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/achterblog/fzpwuploader/cmd/common"
	"github.com/achterblog/fzpwuploader/internal/config"
	"github.com/achterblog/fzpwuploader/pkg/credman"
	"github.com/achterblog/fzpwuploader/pkg/logger"
)

// appFs is the filesystem the commands read inputs and write state to.
var appFs afero.Fs = afero.NewOsFs()

// env is what every command needs: the config directory and the loaded
// configuration.
type env struct {
	dir string
	cfg *config.Config
}

func loadEnv() (*env, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(appFs, dir)
	if err != nil {
		return nil, err
	}
	return &env{dir: dir, cfg: cfg}, nil
}

func (e *env) credentials(l logger.Logger) *credman.Manager {
	return credman.NewManager(appFs, e.dir, l)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func showConfig(ctx *cli.Context) error {
	e, err := loadEnv()
	if err != nil {
		common.PrintRuntimeErr(ctx, "config", "load_config", err)
		return nil
	}
	fmt.Printf("# %s\n", config.Path(e.dir))
	fmt.Print(e.cfg.String())
	return nil
}
