package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"

	"github.com/achterblog/fzpwuploader/cmd/common"
	"github.com/achterblog/fzpwuploader/internal/history"
	"github.com/achterblog/fzpwuploader/pkg/credman"
	"github.com/achterblog/fzpwuploader/pkg/logger"
	"github.com/achterblog/fzpwuploader/pkg/uploadlib"
)

var (
	upUser      string
	upPassword  string
	inputFile   string
	baseURL     string
	uploadHost  string
	timeout     time.Duration
	taskTimeout time.Duration
	noProgress  bool
	showLog     bool
	logFile     string
	debug       bool
	proxyURL    string
	limitRate   string

	upFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "user, u",
			Usage:       "forum user name (defaults to the one in the config file)",
			Destination: &upUser,
		},
		cli.StringFlag{
			Name:        "password, p",
			Usage:       "forum password (defaults to the stored credentials)",
			EnvVar:      "FZPWUP_PASSWORD",
			Destination: &upPassword,
		},
		cli.StringFlag{
			Name:        "input-file, i",
			Usage:       "read the paths to upload from a file, one per line",
			Destination: &inputFile,
		},
		cli.StringFlag{
			Name:        "base-url",
			Usage:       "address of the forum script",
			Destination: &baseURL,
		},
		cli.StringFlag{
			Name:        "upload-host",
			Usage:       "host name expected in the picture URLs",
			Destination: &uploadHost,
		},
		cli.DurationFlag{
			Name:        "timeout",
			Usage:       "timeout of a single http request",
			Destination: &timeout,
		},
		cli.DurationFlag{
			Name:        "task-timeout",
			Usage:       "how long to wait for a single upload",
			Destination: &taskTimeout,
		},
		cli.StringFlag{
			Name:        "proxy",
			Usage:       "send requests through an http, https or socks5 proxy",
			Destination: &proxyURL,
		},
		cli.StringFlag{
			Name:        "limit-rate",
			Usage:       "cap the upload bandwidth, e.g. 512KB or 1MiB (per second)",
			Destination: &limitRate,
		},
		cli.BoolFlag{
			Name:        "no-progress",
			Usage:       "do not show progress bars",
			Destination: &noProgress,
		},
		cli.BoolFlag{
			Name:        "show-log",
			Usage:       "print the log of the upload when done",
			Destination: &showLog,
		},
		cli.StringFlag{
			Name:        "log-file",
			Usage:       "append the log to a file",
			Destination: &logFile,
		},
		cli.BoolFlag{
			Name:        "debug, d",
			Usage:       "log http traffic and print the log to stderr",
			Destination: &debug,
		},
	}
)

var errNoPassword = errors.New("no password given, use --password or \"fzpwup credentials save\"")

// isTerminal reports whether progress bars can be drawn on stdout.
var isTerminal = func() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func upload(ctx *cli.Context) (err error) {
	args := ctx.Args()
	if len(args) == 0 && inputFile == "" {
		if ctx.Command.Name == "" {
			return common.Help(ctx)
		}
		return common.PrintErrWithCmdHelp(
			ctx,
			errors.New("no files provided"),
		)
	} else if args.First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}

	e, err := loadEnv()
	if err != nil {
		common.PrintRuntimeErr(ctx, "upload", "load_config", err)
		return nil
	}
	files, err := collectFiles(args)
	if err != nil {
		common.PrintRuntimeErr(ctx, "upload", "collect_files", err)
		return nil
	}
	if len(files) == 0 {
		return common.PrintErrWithCmdHelp(ctx, errors.New("no files provided"))
	}

	dbg := debug || e.cfg.Debug
	buf := logger.NewBufferLogger(0, dbg)
	sinks := []logger.Logger{buf}
	if dbg {
		sinks = append(sinks, logger.NewConsoleLogger(os.Stderr, true))
	}
	if logFile != "" {
		f, ferr := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if ferr != nil {
			common.PrintRuntimeErr(ctx, "upload", "open_log_file", ferr)
			return nil
		}
		sl := logger.NewStandardLogger(log.New(f, "", log.LstdFlags))
		sl.SetDebug(dbg)
		// Closing the standard logger leaves the file open.
		defer f.Close()
		sinks = append(sinks, sl)
	}
	l := logger.NewMultiLogger(sinks...)
	defer l.Close()

	user := firstNonEmpty(upUser, e.cfg.Username)
	if user == "" {
		return common.PrintErrWithCmdHelp(ctx, errors.New("no user given, use --user"))
	}
	password := upPassword
	if password == "" {
		pw, _, lerr := e.credentials(l).Lookup(user)
		if errors.Is(lerr, credman.ErrNoCredentials) {
			common.PrintRuntimeErr(ctx, "upload", "credentials", errNoPassword)
			return nil
		}
		if lerr != nil {
			common.PrintRuntimeErr(ctx, "upload", "credentials", lerr)
			return nil
		}
		password = pw
	}

	rate, err := uploadlib.ParseRate(firstNonEmpty(limitRate, e.cfg.RateLimit))
	if err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}

	sizes := make(map[string]int64, len(files))
	var total int64
	for _, f := range files {
		if fi, serr := appFs.Stat(f); serr == nil {
			sizes[f] = fi.Size()
			total += fi.Size()
		}
	}

	var (
		p    *mpb.Progress
		fbar *mpb.Bar
		bbar *mpb.Bar
	)
	var onProgress uploadlib.ProgressFunc
	cb := uploadlib.BatchCallback(uploadlib.BatchCallbackFuncs{})
	if !noProgress && isTerminal() {
		p = mpb.New(mpb.WithWidth(64), mpb.WithRefreshRate(150*time.Millisecond))
		fbar, bbar = common.InitBars(p, len(files), total)
		onProgress = func(_ string, n int) { bbar.IncrBy(n) }
		cb = barCallback{fbar}
	}

	headers := uploadlib.Headers{}
	for _, h := range e.cfg.Headers {
		headers.Update(h.Key, h.Value)
	}
	conn, err := uploadlib.NewConnection(
		firstNonEmpty(baseURL, e.cfg.BaseURL),
		&uploadlib.ConnectionOpts{
			Fs:         appFs,
			Logger:     l,
			Timeout:    pickDuration(timeout, time.Duration(e.cfg.Timeout)),
			UserAgent:  firstNonEmpty(e.cfg.UserAgent, userAgent()),
			UploadHost: firstNonEmpty(uploadHost, e.cfg.UploadHost),
			Headers:    headers,
			Proxy:      firstNonEmpty(proxyURL, e.cfg.Proxy),
			RateLimit:  rate,
			OnProgress: onProgress,
		},
	)
	if err != nil {
		common.PrintRuntimeErr(ctx, "upload", "new_connection", err)
		return nil
	}

	sctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	batch := uploadlib.NewBatch(conn, &uploadlib.BatchOpts{
		Username:    user,
		Password:    password,
		Callback:    cb,
		Logger:      l,
		TaskTimeout: pickDuration(taskTimeout, time.Duration(e.cfg.TaskTimeout)),
	})
	start := time.Now()
	res, _ := batch.Run(sctx, files)
	if p != nil {
		fbar.SetTotal(-1, true)
		bbar.SetTotal(-1, true)
		p.Wait()
	}

	report := res.Report()
	fmt.Print(report)
	if !strings.HasSuffix(report, "\n") {
		fmt.Println()
	}
	printSummary(os.Stdout, res, sizes, time.Since(start))
	if res.Interrupted {
		fmt.Println("Upload interrupted, the remaining files were not sent.")
	}
	if e.cfg.History && res.Succeeded > 0 {
		if herr := recordHistory(e.dir, res, sizes); herr != nil {
			l.Warning("Could not record upload history: %v", herr)
		}
	}
	if showLog {
		fmt.Println("\nLog:")
		fmt.Print(buf.String())
	}
	return nil
}

// collectFiles merges the paths of --input-file with the expanded args.
func collectFiles(args []string) ([]string, error) {
	var files []string
	if inputFile != "" {
		pr, err := ParseInputFile(appFs, inputFile)
		if err != nil {
			return nil, err
		}
		files = append(files, pr.Paths...)
	}
	if len(args) > 0 {
		expanded, err := ExpandPaths(args)
		if err != nil {
			return nil, err
		}
		files = append(files, expanded...)
	}
	return files, nil
}

func printSummary(w io.Writer, res *uploadlib.BatchResult, sizes map[string]int64, took time.Duration) {
	if res.LoginStatus != uploadlib.StatusLoggedIn {
		return
	}
	var sent int64
	for _, en := range res.Entries {
		if en.Err == nil {
			sent += sizes[en.Path]
		}
	}
	fmt.Fprintf(w, "Uploaded %d of %d files (%s) in %s", res.Succeeded, res.Total,
		humanize.IBytes(uint64(sent)), took.Round(time.Millisecond))
	if res.Failed > 0 {
		fmt.Fprintf(w, ", %d failed", res.Failed)
	}
	fmt.Fprintln(w)
}

func recordHistory(dir string, res *uploadlib.BatchResult, sizes map[string]int64) error {
	st, err := history.Open(dir)
	if err != nil {
		return err
	}
	defer st.Close()
	now := time.Now()
	entries := make([]history.Entry, 0, res.Succeeded)
	for _, en := range res.Entries {
		if en.Err != nil {
			continue
		}
		entries = append(entries, history.Entry{
			File:       en.Path,
			URL:        en.URL,
			Size:       sizes[en.Path],
			Username:   res.Username,
			UploadedAt: now,
		})
	}
	return st.Record(context.Background(), entries...)
}

func pickDuration(flag, cfg time.Duration) time.Duration {
	if flag > 0 {
		return flag
	}
	return cfg
}

// barCallback advances the files bar for every finished upload.
type barCallback struct {
	bar *mpb.Bar
}

func (b barCallback) Uploaded(string) { b.bar.Increment() }

func (b barCallback) Failed(string) { b.bar.Increment() }
