package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/bankconnect/internal/logging"
	"github.com/muurk/bankconnect/internal/mockbank"
	"github.com/muurk/bankconnect/internal/ui"
)

// Mock bank flags
var (
	mockHost          string
	mockPort          int
	mockValidatorPort int
	mockCertPath      string
	mockKeyPath       string
	mockInterval      time.Duration
	mockLogLevel      string
)

// mockBankCmd runs a local stand-in bank to try the client against
var mockBankCmd = &cobra.Command{
	Use:   "mock-bank",
	Short: "Run a local mock bank node",
	Long: `Run a stand-in bank node and its primary validator on this machine.

The bank serves /config and streams crawl and clean status over websockets,
which is enough to exercise every screen of the client without a real network.`,
	Example: `  # Serve on 127.0.0.1:8000 (validator on 8001)
  bankconnect mock-bank

  # Then, in another terminal
  bankconnect connect 127.0.0.1 --port 8000

  # Serve over https with your own certificate
  bankconnect mock-bank --cert server.crt --key server.key --port 8443`,
	Args: cobra.NoArgs,
	RunE: runMockBank,
}

func init() {
	mockBankCmd.Flags().StringVar(&mockHost, "host", "127.0.0.1", "Address to listen on and advertise")
	mockBankCmd.Flags().IntVar(&mockPort, "port", 8000, "Bank port")
	mockBankCmd.Flags().IntVar(&mockValidatorPort, "validator-port", 0, "Primary validator port (default: bank port + 1)")
	mockBankCmd.Flags().StringVar(&mockCertPath, "cert", "", "TLS certificate file (serves https together with --key)")
	mockBankCmd.Flags().StringVar(&mockKeyPath, "key", "", "TLS private key file")
	mockBankCmd.Flags().DurationVar(&mockInterval, "interval", mockbank.DefaultStatusInterval, "How often status streams push an update")
	mockBankCmd.Flags().StringVar(&mockLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(mockBankCmd)
}

func runMockBank(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if err := logging.InitializeWithOptions(logging.Options{Level: mockLogLevel, OutputPath: "stderr"}); err != nil {
		return err
	}
	defer logging.Sync()

	srv, err := mockbank.New(&mockbank.Config{
		Host:           mockHost,
		Port:           mockPort,
		ValidatorPort:  mockValidatorPort,
		CertPath:       mockCertPath,
		KeyPath:        mockKeyPath,
		StatusInterval: mockInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to create mock bank: %w", err)
	}

	bank := srv.BankAddress()
	ui.NewPrinter(os.Stdout).PrintHeader("Mock Bank", "bankconnect mock-bank", []ui.Detail{
		{Key: "Bank", Value: bank.BaseURL()},
		{Key: "Validator", Value: srv.ValidatorAddress().BaseURL()},
		{Key: "Status every", Value: mockInterval.String()},
		{Key: "Connect with", Value: fmt.Sprintf("bankconnect connect %s --protocol %s --port %d", bank.IPAddress, bank.Protocol, bank.EffectivePort())},
	})

	ctx, cancel := signalContext()
	defer cancel()

	return srv.Start(ctx)
}
