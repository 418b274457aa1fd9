package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zubairAhmed777/yt-downldr/internal/config"
	"github.com/zubairAhmed777/yt-downldr/internal/fetch"
	"github.com/zubairAhmed777/yt-downldr/internal/output"
	"github.com/zubairAhmed777/yt-downldr/internal/server"
	"github.com/zubairAhmed777/yt-downldr/internal/utils"
)

var (
	port        int
	downloadDir string
	format      string
	configPath  string
	debug       bool
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:     "yt-downldr",
	Short:   "yt-downldr runs an HTTP server that downloads videos by URL",
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		utils.InitLogger(debug)
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = port
		}
		if downloadDir != "" {
			cfg.DownloadDir = downloadDir
		}
		if cmd.Flags().Changed("format") {
			cfg.Format = format
		}
		if err := utils.EnsureDir(cfg.DownloadDir); err != nil {
			return fmt.Errorf("error creating download directory %s: %v", cfg.DownloadDir, err)
		}

		var muxer fetch.Muxer
		muxer, err = fetch.NewFFmpegMuxer()
		if err != nil {
			output.PrintWarning(fmt.Sprintf("%s ffmpeg not found, merged downloads will fail", output.StyleSymbols["warning"]))
			muxErr := err
			muxer = fetch.MuxerFunc(func(ctx context.Context, v, a, o string) error {
				return muxErr
			})
		}
		httpClient := utils.NewHTTPClient(utils.HTTPClientConfig{
			ProxyURL:  cfg.ProxyURL,
			UserAgent: cfg.UserAgent,
		})
		fetcher := fetch.NewFallbackFetcher(
			fetch.NewNativeFetcher(cfg.DownloadDir, muxer, httpClient),
			fetch.NewYtdlpFetcher(cfg.DownloadDir, cfg.Format, cfg.ProxyURL),
		)
		srv := server.New(cfg, fetcher)

		output.PrintHeader(fmt.Sprintf("yt-downldr %s", Version))
		output.PrintInfo(fmt.Sprintf("%s Listening on port %d", output.StyleSymbols["arrow"], cfg.Port))
		output.PrintDetail(fmt.Sprintf("%s Download directory: %s", output.StyleSymbols["bullet"], cfg.DownloadDir))

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			log.Info().Str("op", "cmd/root").Msgf("Received %s, shutting down", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Stop(ctx); err != nil {
				return err
			}
			output.PrintSuccess(fmt.Sprintf("%s Server stopped", output.StyleSymbols["pass"]))
			return nil
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		output.PrintError(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "Listening port (PORT env variable overrides the default)")
	rootCmd.Flags().StringVarP(&downloadDir, "dir", "d", "", "Download directory (defaults to the persistent volume when mounted)")
	rootCmd.Flags().StringVarP(&format, "format", "f", "best", "yt-dlp format preset (best, 1080p, 720p, etc.)")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}
