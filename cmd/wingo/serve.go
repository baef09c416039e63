package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wingo/internal/platform/tui"
)

var (
	flagSSHAddr string
	flagHostKey string
	flagDataDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the wingo SSH server",
	Long: `Start an SSH server that lets users connect and play.

Each SSH user gets their own save directory under the data dir, holding
their progression and unfinished run. A user may be connected only once
at a time.

Host key handling:
  - The key at ssh.host_key_path (or --host-key) is used
  - It is generated on first start if it does not exist

Examples:
  wingo serve                           # Listen on the configured address
  wingo serve --ssh :2222               # Listen on port 2222
  wingo serve --host-key ./my_host_key  # Use specific host key

Users can connect with:
  ssh localhost -p 2323`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (host:port, default from config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (default from config)")
	serveCmd.Flags().StringVar(&flagDataDir, "data-dir", "", "Directory for per-user saves (default from config)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg.SSH.Address = firstNonEmpty(flagSSHAddr, cfg.SSH.Address)
	cfg.SSH.HostKeyPath = firstNonEmpty(flagHostKey, cfg.SSH.HostKeyPath)
	cfg.SSH.DataDir = firstNonEmpty(flagDataDir, cfg.SSH.DataDir)

	svc, err := newService()
	if err != nil {
		return err
	}
	server, err := tui.NewSSHServer(cfg, svc, logger.WithPrefix("wingo-ssh"))
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	fmt.Printf("Starting wingo SSH server on %s\n", server.Addr())
	fmt.Println("Press Ctrl+C to stop")
	return server.ListenAndServe()
}
