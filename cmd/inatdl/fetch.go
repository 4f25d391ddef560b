package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"inatdl/pkg/auth"
	"inatdl/pkg/config"
	"inatdl/pkg/logger"
	"inatdl/pkg/report"
	"inatdl/pkg/scraper"
)

var (
	// Fetch command flags
	cookie       string
	limit        int
	download     bool
	imageDir     string
	addPhotoURLs bool
	outputPath   string
	rateLimit    float64
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <username>",
	Short: "Fetch observation photo filenames and optionally download images",
	Long: `Fetch all observations for an iNaturalist username, recover each photo's
original filename from its web page, and write the results to a CSV file.

Recovering filenames requires the _inaturalist_session cookie of the account
that owns the observations. Provide it with --cookie, store it once with
'inatdl auth login', or set INATDL_SESSION_COOKIE.

With --download, the original-resolution image bytes are saved as
<observation_id>_<original filename> in the image directory. When the photo
page cannot be scraped, a fixed list of direct storage URLs is tried instead.`,
	Example: `  # Filenames only
  inatdl fetch mycologist --cookie 2f065b3aba346277da95bec21d559f3a

  # First 50 observations, with images and photo URL columns
  inatdl fetch mycologist --limit 50 --download --add-photo-urls

  # Custom output locations
  inatdl fetch mycologist --download --image-dir ./originals -o results.csv`,
	Args: cobra.ExactArgs(1),
	Run:  runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&cookie, "cookie", "", "value of the _inaturalist_session cookie")
	fetchCmd.Flags().IntVar(&limit, "limit", 0, "maximum number of observations to process (0 = all)")
	fetchCmd.Flags().BoolVar(&download, "download", false, "download original-size images")
	fetchCmd.Flags().StringVar(&imageDir, "image-dir", "", "directory for downloaded images (default: images)")
	fetchCmd.Flags().BoolVar(&addPhotoURLs, "add-photo-urls", false, "include photo URL columns in the CSV")
	fetchCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output CSV filename, must end in .csv")
	fetchCmd.Flags().Float64Var(&rateLimit, "rate-limit", 0, "outbound requests per second (default: 1)")
}

func runFetch(cmd *cobra.Command, args []string) {
	username := strings.TrimSpace(args[0])

	flags := map[string]interface{}{
		"username": username,
	}
	if cookie != "" {
		flags["cookie"] = cookie
	}
	if limit > 0 {
		flags["limit"] = limit
	}
	if cmd.Flags().Changed("download") {
		flags["download"] = download
	}
	if imageDir != "" {
		flags["image-dir"] = imageDir
	}
	if cmd.Flags().Changed("add-photo-urls") {
		flags["add-photo-urls"] = addPhotoURLs
	}
	if outputPath != "" {
		flags["output"] = outputPath
	}
	if rateLimit > 0 {
		flags["rate-limit"] = rateLimit
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	// Validation failures are fatal before any network activity.
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()

	// Fall back to stored credentials when no cookie was given directly.
	if cfg.INaturalist.SessionCookie == "" {
		if manager, err := auth.NewManager(); err == nil {
			if account, err := manager.Retrieve(username); err == nil {
				cfg.INaturalist.SessionCookie = account.SessionCookie
				log.WithField("username", username).Debug("using stored session cookie")
			}
		}
	}
	if cfg.INaturalist.SessionCookie == "" {
		log.Warn("no session cookie configured; original filenames will not be visible")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer, err := report.NewWriter(cfg.Output.CSVPath, cfg.Output.IncludePhotoURLs)
	if err != nil {
		log.WithError(err).Error("failed to create output file")
		os.Exit(1)
	}

	s, err := scraper.New(cfg, writer)
	if err != nil {
		writer.Close()
		log.WithError(err).Error("failed to initialize")
		os.Exit(1)
	}

	log.WithField("username", username).Info("starting run")

	summary, runErr := s.Run(ctx)

	if err := writer.Close(); err != nil {
		log.WithError(err).Error("failed to finalize output file")
	}

	log.InfoWithFields("run finished", map[string]interface{}{
		"observations":      summary.Observations,
		"photos_found":      summary.PhotosFound,
		"photos_downloaded": summary.PhotosDownloaded,
		"output":            cfg.Output.CSVPath,
	})

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Interrupted by user.")
			os.Exit(130)
		}
		log.WithError(runErr).Error("run failed")
		os.Exit(1)
	}

	fmt.Printf("Done. Results saved to %s\n", cfg.Output.CSVPath)
	if cfg.Download.Enabled {
		fmt.Printf("Downloaded %d of %d images to %s/\n",
			summary.PhotosDownloaded, summary.PhotosFound, cfg.Download.ImageDir)
	}
}
