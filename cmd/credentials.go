package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli"

	"github.com/achterblog/fzpwuploader/cmd/common"
	"github.com/achterblog/fzpwuploader/pkg/credman"
)

var (
	credUser     string
	credPassword string

	credFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "user, u",
			Usage:       "forum user name (defaults to the one in the config file)",
			Destination: &credUser,
		},
	}
	credSaveFlags = append([]cli.Flag{
		cli.StringFlag{
			Name:        "password, p",
			Usage:       "password to store (read from stdin if not given)",
			EnvVar:      "FZPWUP_PASSWORD",
			Destination: &credPassword,
		},
	}, credFlags...)
)

// passwordInput is where credentials save reads a password that was not
// passed as a flag.
var passwordInput io.Reader = os.Stdin

func credentialsSave(ctx *cli.Context) error {
	e, err := loadEnv()
	if err != nil {
		common.PrintRuntimeErr(ctx, "credentials", "load_config", err)
		return nil
	}
	user := firstNonEmpty(credUser, e.cfg.Username)
	if user == "" {
		return common.PrintErrWithCmdHelp(ctx, errors.New("no user given, use --user"))
	}
	password := credPassword
	if password == "" {
		fmt.Printf("Password for %s: ", user)
		password, err = readLine(passwordInput)
		if err != nil {
			common.PrintRuntimeErr(ctx, "credentials", "read_password", err)
			return nil
		}
	}
	if password == "" {
		return common.PrintErrWithCmdHelp(ctx, errors.New("empty password"))
	}
	backend, err := e.credentials(nil).Save(user, password)
	if err != nil {
		common.PrintRuntimeErr(ctx, "credentials", "save", err)
		return nil
	}
	if e.cfg.Username != user {
		e.cfg.Username = user
		if err := e.cfg.Save(appFs, e.dir); err != nil {
			common.PrintRuntimeErr(ctx, "credentials", "save_config", err)
			return nil
		}
	}
	fmt.Printf("fzpwup: password of %s stored in the %s backend\n", user, backend)
	return nil
}

func credentialsShow(ctx *cli.Context) error {
	e, err := loadEnv()
	if err != nil {
		common.PrintRuntimeErr(ctx, "credentials", "load_config", err)
		return nil
	}
	user := firstNonEmpty(credUser, e.cfg.Username)
	if user == "" {
		fmt.Println("fzpwup: no user configured")
		return nil
	}
	_, backend, err := e.credentials(nil).Lookup(user)
	switch {
	case errors.Is(err, credman.ErrNoCredentials):
		fmt.Printf("fzpwup: no password stored for %s\n", user)
	case err != nil:
		common.PrintRuntimeErr(ctx, "credentials", "lookup", err)
	default:
		fmt.Printf("fzpwup: password of %s is stored in the %s backend\n", user, backend)
	}
	return nil
}

func credentialsForget(ctx *cli.Context) error {
	e, err := loadEnv()
	if err != nil {
		common.PrintRuntimeErr(ctx, "credentials", "load_config", err)
		return nil
	}
	user := firstNonEmpty(credUser, e.cfg.Username)
	if user == "" {
		return common.PrintErrWithCmdHelp(ctx, errors.New("no user given, use --user"))
	}
	err = e.credentials(nil).Forget(user)
	switch {
	case errors.Is(err, credman.ErrNoCredentials):
		fmt.Printf("fzpwup: no password stored for %s\n", user)
	case err != nil:
		common.PrintRuntimeErr(ctx, "credentials", "forget", err)
	default:
		fmt.Printf("fzpwup: password of %s deleted\n", user)
	}
	return nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
