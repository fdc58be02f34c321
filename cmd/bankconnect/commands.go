package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/bankconnect/internal/appstate"
	"github.com/muurk/bankconnect/internal/bankclient"
	"github.com/muurk/bankconnect/internal/discovery"
	"github.com/muurk/bankconnect/internal/form"
	"github.com/muurk/bankconnect/internal/logging"
	"github.com/muurk/bankconnect/internal/node"
	"github.com/muurk/bankconnect/internal/router"
	"github.com/muurk/bankconnect/internal/store"
	"github.com/muurk/bankconnect/internal/tui"
	"github.com/muurk/bankconnect/internal/ui"
)

const logFileName = "bankconnect.log"

// Shared flags
var (
	storePath      string
	logFile        string
	connectTimeout time.Duration
)

// Command-specific flags
var (
	resume         bool
	protocol       string
	port           string
	nickname       string
	scanTimeout    int
	skipConfirm    bool
	showValidators bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Path to the bank store file (default: <config dir>/bankconnect/store.yaml)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file for the interactive screen (default: <config dir>/bankconnect/bankconnect.log)")

	rootCmd.Flags().BoolVar(&resume, "resume", false, "Reconnect to the last active bank on start")
	rootCmd.Flags().DurationVar(&connectTimeout, "timeout", 0, "Connect timeout, e.g. 10s (default: store preference, 0 waits indefinitely)")

	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(banksCmd)
	rootCmd.AddCommand(scanCmd)
}

// initLogging sends logs to a file for the TUI and to stderr otherwise.
// Logging stays silent unless BANKCONNECT_LOG_LEVEL is set.
func initLogging(interactive bool) {
	opts := logging.Options{OutputPath: "stderr"}

	if interactive {
		path := logFile
		if path == "" {
			dir, err := store.GetStoreDir()
			if err == nil && os.MkdirAll(dir, 0o755) == nil {
				path = filepath.Join(dir, logFileName)
			}
		}
		if path == "" {
			// Nowhere safe to write while the alt screen is up
			path = os.DevNull
		}
		opts.OutputPath = path
	}

	if err := logging.InitializeWithOptions(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

// newConnector opens the store and wires a connector to it. An explicit
// --timeout overrides the stored preference.
func newConnector(cmd *cobra.Command) (*appstate.Connector, *appstate.State, *store.Store, error) {
	st, err := store.Open(storePath)
	if err != nil {
		return nil, nil, nil, err
	}

	state := appstate.New()
	connector := appstate.NewConnector(state, st)
	if f := cmd.Flags().Lookup("timeout"); f != nil && f.Changed {
		connector.Timeout = connectTimeout
	}

	return connector, state, st, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	initLogging(true)
	defer logging.Sync()

	connector, state, st, err := newConnector(cmd)
	if err != nil {
		return err
	}

	var initial *form.Values
	if p := st.Preferences().DefaultProtocol; p != "" {
		if proto, err := node.ParseProtocol(p); err == nil {
			values := form.DefaultValues()
			values.Protocol = string(proto)
			initial = &values
		}
	}

	_, active := st.ActiveBank()

	model := tui.NewAppModel(tui.AppDeps{
		Connector: connector,
		State:     state,
		Directory: st,
		Router:    router.New(router.ConnectPath),
		Scanner:   discovery.NewScanner(),
		Streams:   bankclient.NewStatusStream(),
		Initial:   initial,
		Resume:    resume && active != nil,
	})

	logging.Info("Starting interactive session", zap.String("store", st.Path()), zap.Bool("resume", resume))

	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if app, ok := final.(tui.AppModel); ok {
		app.Close()
	}
	if err != nil {
		return fmt.Errorf("tui error: %w", err)
	}

	return nil
}

// connectCmd connects to a bank without the TUI
var connectCmd = &cobra.Command{
	Use:   "connect <ip-address>",
	Short: "Connect to a bank and remember it",
	Long: `Connect to the bank at the given IP address, store it, and make it the
active bank.

The bank's /config document is fetched and checked to be a bank. Its primary
validator is looked up as well; if that fails the bank is still stored.`,
	Example: `  # Connect over http on the default port
  bankconnect connect 143.110.137.54

  # Connect over https on a custom port with a nickname
  bankconnect connect 10.0.0.5 --protocol https --port 8443 --nickname lab

  # Give up after 10 seconds
  bankconnect connect 10.0.0.5 --timeout 10s`,
	Args: cobra.ExactArgs(1),
	RunE: runConnect,
}

func init() {
	connectCmd.Flags().StringVar(&protocol, "protocol", string(node.ProtocolHTTP), "Protocol (http, https)")
	connectCmd.Flags().StringVar(&port, "port", "", "Port (default: 80 for http, 443 for https)")
	connectCmd.Flags().StringVar(&nickname, "nickname", "", "Nickname to store with the bank")
	connectCmd.Flags().DurationVar(&connectTimeout, "timeout", 0, "Connect timeout, e.g. 10s (default: store preference, 0 waits indefinitely)")
}

func runConnect(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	initLogging(false)
	defer logging.Sync()

	printer := ui.NewPrinter(os.Stdout)

	values := form.Values{
		IPAddress: strings.TrimSpace(args[0]),
		Port:      port,
		Nickname:  nickname,
		Protocol:  protocol,
	}

	if errs := form.Validate(values); !errs.Empty() {
		printer.PrintError("Invalid address", errs, []string{
			"IP address must be IPv4 (10.0.0.5) or full IPv6",
			"--port must be a number, --protocol http or https",
		})
		return errors.New("invalid address")
	}

	addr, nick, err := form.BuildRequest(values)
	if err != nil {
		return err
	}

	connector, _, st, err := newConnector(cmd)
	if err != nil {
		return err
	}

	params := []ui.Detail{
		{Key: "Address", Value: addr.BaseURL()},
		{Key: "Store", Value: st.Path()},
	}
	if nick != "" {
		params = append(params, ui.Detail{Key: "Nickname", Value: nick})
	}
	if connector.Timeout > 0 {
		params = append(params, ui.Detail{Key: "Timeout", Value: connector.Timeout.String()})
	}
	printer.PrintHeader("Connect to Bank", "bankconnect connect", params)

	ctx, cancel := signalContext()
	defer cancel()

	var res appstate.Result
	err = ui.RunWithSpinner(ctx, os.Stdout, "Connecting to "+addr.BaseURL(), func(ctx context.Context) error {
		var connectErr error
		res, connectErr = connector.ConnectAndStore(ctx, addr, nick)
		return connectErr
	})
	if err != nil {
		printer.PrintError("Connection failed", err, nil)
		return err
	}

	if res.Error != "" {
		printer.PrintError("Connection failed", errors.New(res.Error), bankclient.TroubleshootingHint(res.Cause))
		return errors.New(res.Error)
	}

	printer.PrintSuccess("Connected to bank", bankDetails(res, st))
	return nil
}

func bankDetails(res appstate.Result, st *store.Store) []ui.Detail {
	cfg := res.BankConfig
	details := []ui.Detail{
		{Key: "Address", Value: cfg.NodeAddress().BaseURL()},
		{Key: "Node identifier", Value: cfg.NodeIdentifier},
		{Key: "Account number", Value: cfg.AccountNumber},
		{Key: "Version", Value: cfg.Version},
		{Key: "Transaction fee", Value: strconv.Itoa(cfg.DefaultTransactionFee)},
		{Key: "Stored as", Value: res.Key},
	}

	if stored, ok := st.Bank(res.Key); ok && stored.Nickname != "" {
		details = append([]ui.Detail{{Key: "Nickname", Value: stored.Nickname}}, details...)
	}

	if pv := cfg.PrimaryValidator; pv != nil {
		details = append(details, ui.Detail{Key: "Primary validator", Value: pv.NodeAddress().BaseURL()})
	}

	return details
}

// banksCmd lists stored banks
var banksCmd = &cobra.Command{
	Use:   "banks",
	Short: "List stored banks",
	Long: `List the banks you have connected to. The active bank is marked with ` + ui.ActiveMarker + `.

Keys have the form <protocol>/<ip>/<port> and are what 'banks remove' expects.`,
	Example: `  bankconnect banks
  bankconnect banks --validators
  bankconnect banks remove http/143.110.137.54/80`,
	Args: cobra.NoArgs,
	RunE: runBanks,
}

var banksRemoveCmd = &cobra.Command{
	Use:   "remove <key>",
	Short: "Forget a stored bank",
	Args:  cobra.ExactArgs(1),
	RunE:  runBanksRemove,
}

func init() {
	banksCmd.Flags().BoolVar(&showValidators, "validators", false, "Also list stored validators")
	banksRemoveCmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Do not ask for confirmation")
	banksCmd.AddCommand(banksRemoveCmd)
}

func runBanks(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	initLogging(false)

	st, err := store.Open(storePath)
	if err != nil {
		return err
	}

	printer := ui.NewPrinter(os.Stdout)
	banks := st.Banks()
	if len(banks) == 0 {
		printer.PrintWarning("No banks stored yet", []ui.Detail{
			{Key: "Store", Value: st.Path()},
			{Key: "Next", Value: "bankconnect connect <ip-address>"},
		})
		return nil
	}

	activeKey, _ := st.ActiveBank()
	printer.PrintTable(
		[]string{"", "KEY", "NICKNAME", "ADDRESS", "LAST CONNECTED"},
		nodeRows(banks, activeKey),
	)

	if showValidators {
		if validators := st.Validators(); len(validators) > 0 {
			printer.Newline()
			printer.PrintTable(
				[]string{"", "KEY", "NICKNAME", "ADDRESS", "LAST CONNECTED"},
				nodeRows(validators, ""),
			)
		}
	}

	return nil
}

func nodeRows(entries []store.Entry, activeKey string) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		marker := ""
		if e.Key == activeKey {
			marker = ui.ActiveMarker
		}
		last := "never"
		if !e.Node.LastConnected.IsZero() {
			last = e.Node.LastConnected.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{marker, e.Key, e.Node.Nickname, e.Node.Address.BaseURL(), last})
	}
	return rows
}

func runBanksRemove(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	initLogging(false)
	defer logging.Sync()

	st, err := store.Open(storePath)
	if err != nil {
		return err
	}

	key := args[0]
	bank, ok := st.Bank(key)
	if !ok {
		return fmt.Errorf("no bank stored under %q (see 'bankconnect banks')", key)
	}

	if !skipConfirm && !ui.Confirm(os.Stdin, os.Stdout, fmt.Sprintf("Remove %s?", bank.DisplayName())) {
		fmt.Println("Aborted.")
		return nil
	}

	st.RemoveBank(key)
	if err := st.Save(); err != nil {
		return err
	}

	logging.Info("Removed bank", zap.String("key", key))
	ui.NewPrinter(os.Stdout).PrintSuccess("Bank removed", []ui.Detail{
		{Key: "Key", Value: key},
		{Key: "Name", Value: bank.DisplayName()},
	})
	return nil
}

// scanCmd discovers banks on the local network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the local network for banks",
	Long: `Scan for banks using mDNS/DNS-SD discovery.

Banks are found when they advertise ` + discovery.ServiceType + ` with a
node_type=BANK TXT record.`,
	Example: `  # Scan for 5 seconds (default)
  bankconnect scan

  # Longer scan for busy networks
  bankconnect scan --timeout 15`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", int(discovery.DefaultScanTimeout/time.Second), "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	initLogging(false)
	defer logging.Sync()

	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(scanTimeout) * time.Second

	ctx, cancel := signalContext()
	defer cancel()

	var banks []*discovery.Bank
	err := ui.RunWithSpinner(ctx, os.Stdout, fmt.Sprintf("Scanning for banks (%ds)", scanTimeout), func(ctx context.Context) error {
		var scanErr error
		banks, scanErr = scanner.ScanForBanks(ctx)
		return scanErr
	})

	printer := ui.NewPrinter(os.Stdout)
	if err != nil {
		printer.PrintError("Scan failed", err, []string{
			"Multicast must be allowed on this network (UDP 5353)",
		})
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(banks) == 0 {
		printer.PrintWarning("No banks found", []ui.Detail{
			{Key: "Hint", Value: "Try increasing --timeout for slower networks"},
			{Key: "Hint", Value: "Use 'bankconnect connect <ip-address>' if discovery fails"},
		})
		return nil
	}

	rows := make([][]string, 0, len(banks))
	for _, b := range banks {
		rows = append(rows, []string{b.Nickname(), b.Address.BaseURL(), strings.TrimSuffix(b.Hostname, ".")})
	}
	printer.PrintTable([]string{"NAME", "ADDRESS", "HOST"}, rows)
	printer.Newline()
	printer.Println("Use 'bankconnect connect <ip-address>' to connect to one")

	return nil
}
