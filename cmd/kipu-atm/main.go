package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kipubank/kipu-atm/internal/apperr"
	"github.com/kipubank/kipu-atm/internal/backup"
	"github.com/kipubank/kipu-atm/internal/config"
	"github.com/kipubank/kipu-atm/internal/logger"
	"github.com/kipubank/kipu-atm/internal/models"
	"github.com/kipubank/kipu-atm/internal/services"
	"github.com/kipubank/kipu-atm/internal/storage"
	"github.com/kipubank/kipu-atm/internal/tui"
	"github.com/kipubank/kipu-atm/internal/utils"
	"github.com/kipubank/kipu-atm/internal/wallet"
)

// openService builds the bank service over the configured wallet. A missing
// wallet is not fatal: Connect reports it.
func openService(ctx context.Context, cfg *config.Config, frontend wallet.Frontend) (*services.BankService, func(), error) {
	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, nil, err
	}

	journal, err := storage.OpenJournal(dataDir)
	if err != nil {
		return nil, nil, err
	}

	keyed, err := wallet.Open(ctx, cfg, frontend)
	if err != nil {
		logger.Warn("No wallet available: %v", err)
		service := services.NewBankService(cfg, nil, journal)
		service.SetUnavailable(err)
		return service, func() {}, nil
	}

	return services.NewBankService(cfg, keyed, journal), keyed.Close, nil
}

func printSnapshot(session services.Session, snap models.Snapshot) {
	fmt.Printf("Account:               %s\n", session.Account.Hex())
	fmt.Printf("Network:               %s (%d)\n", session.Network.Name, session.Network.ChainID)
	fmt.Printf("Wallet balance:        %s ETH\n", models.FormatEther(snap.WalletBalance))
	fmt.Printf("Bank balance:          %s ETH\n", models.FormatEther(snap.UserBalance))
	fmt.Printf("Your deposits:         %d\n", snap.UserDeposits)
	fmt.Printf("Your withdrawals:      %d\n", snap.UserWithdrawals)
	fmt.Printf("Total in bank:         %s ETH\n", models.FormatEther(snap.TotalBankBalance))
	fmt.Printf("Bank cap:              %s ETH (%s%% used)\n", models.FormatEther(snap.BankCap), snap.Utilization().StringFixed(2))
	fmt.Printf("Max withdrawal per tx: %s ETH\n", models.FormatEther(snap.MaxWithdrawalPerTx))
	fmt.Printf("Total deposits:        %d\n", snap.TotalDeposits)
	fmt.Printf("Total withdrawals:     %d\n", snap.TotalWithdrawals)
	fmt.Printf("Owner:                 %s", snap.Owner.Hex())
	if snap.IsOwner {
		fmt.Print(" (you)")
	}
	fmt.Println()
	if shortfall := snap.Shortfall(); shortfall.Sign() > 0 {
		fmt.Printf("Warning: the bank holds %s ETH less than your balance\n", models.FormatEther(shortfall))
	}
}

func main() {
	utils.LoadEnvironment()
	logger.Init()

	cfg := config.NewConfig()

	var (
		configPath  string
		rpcURL      string
		contract    string
		chainID     uint64
		keystore    string
		dataDir     string
		lang        string
		autoApprove bool
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// fail prints err, localized when it is a bank error, and exits.
	fail := func(err error) {
		logger.Error("%v", err)
		message := err.Error()
		var bankErr *apperr.Error
		if errors.As(err, &bankErr) {
			message = apperr.Message(err, cfg.Language)
		}
		fmt.Fprintln(os.Stderr, "Error:", message)
		stop()
		os.Exit(1)
	}

	// connect opens the wallet and connects, prompting on the terminal.
	connect := func() (*services.BankService, services.Session, models.Snapshot, func()) {
		frontend := wallet.Prompt(os.Stdin, os.Stderr)
		if autoApprove {
			frontend = wallet.AutoApprove
		}

		service, cleanup, err := openService(ctx, cfg, frontend)
		if err != nil {
			fail(err)
		}

		session, snap, err := service.Connect(ctx)
		if err != nil {
			cleanup()
			fail(err)
		}
		return service, session, snap, cleanup
	}

	type handler func(ctx context.Context, s services.Session, snap models.Snapshot, input string) (services.Result, error)

	// transactCommand builds a subcommand running one bank operation.
	transactCommand := func(use, short string, pick func(*services.BankService) handler) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				service, session, snap, cleanup := connect()
				defer cleanup()

				result, err := pick(service)(ctx, session, snap, args[0])
				if result.Tx != nil {
					fmt.Printf("Transaction: %s\n", cfg.TxURL(result.Tx.Hash().Hex()))
				}
				if err != nil {
					cleanup()
					fail(err)
				}

				for _, e := range result.Events {
					fmt.Printf("%s #%v: %s ETH, balance now %s ETH\n",
						e.Name, e.Index, models.FormatEther(e.Amount), models.FormatEther(e.NewBalance))
				}
				if result.RefreshErr != nil {
					fmt.Fprintln(os.Stderr, "Confirmed, but balances could not be refreshed:",
						apperr.Message(result.RefreshErr, cfg.Language))
					return
				}
				fmt.Println()
				printSnapshot(session, result.Snapshot)
			},
		}
	}

	rootCmd := &cobra.Command{
		Use:   "kipu-atm",
		Short: "A terminal client for the KipuBank contract",
		Long:  `kipu-atm deposits to and withdraws from a KipuBank contract, interactively or from scripts.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.LoadFromFile(configPath); err != nil {
				return err
			}
			cfg.LoadFromEnvironment()

			flags := cmd.Flags()
			if flags.Changed("rpc-url") {
				cfg.RPCURL = rpcURL
			}
			if flags.Changed("contract") {
				cfg.ContractAddress = contract
			}
			if flags.Changed("chain-id") {
				cfg.ChainID = chainID
			}
			if flags.Changed("keystore") {
				cfg.KeystorePath = keystore
			}
			if flags.Changed("data-dir") {
				cfg.DataDir = dataDir
			}
			if flags.Changed("lang") {
				cfg.Language = lang
			}
			return cfg.Validate()
		},
		Run: func(cmd *cobra.Command, args []string) {
			dir, err := cfg.ResolveDataDir()
			if err != nil {
				logger.Fatal("Failed to resolve data directory: %v", err)
			}

			// The terminal belongs to the TUI from here on
			if err := logger.InitFileOnly(filepath.Join(dir, "logs")); err != nil {
				logger.Fatal("Failed to initialize file logging: %v", err)
			}
			defer logger.Close()

			app := tui.NewApp(cfg)
			frontend := app.Frontend()
			if autoApprove {
				frontend = wallet.AutoApprove
			}

			service, cleanup, err := openService(ctx, cfg, frontend)
			if err != nil {
				logger.Error("Failed to open bank service: %v", err)
				fmt.Fprintln(os.Stderr, "Error:", err)
				return
			}
			defer cleanup()

			if err := app.Run(ctx, service); err != nil {
				logger.Error("TUI stopped: %v", err)
				fmt.Fprintln(os.Stderr, "Error:", err)
			}
		},
	}

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Show balances and the bank summary",
		Run: func(cmd *cobra.Command, args []string) {
			_, session, snap, cleanup := connect()
			defer cleanup()
			printSnapshot(session, snap)
		},
	}

	receiptsCmd := &cobra.Command{
		Use:   "receipts",
		Short: "List transactions confirmed from this machine",
		Run: func(cmd *cobra.Command, args []string) {
			dir, err := cfg.ResolveDataDir()
			if err != nil {
				fail(err)
			}
			journal, err := storage.OpenJournal(dir)
			if err != nil {
				fail(err)
			}
			receipts, err := journal.List()
			if err != nil {
				fail(err)
			}

			if len(receipts) == 0 {
				fmt.Println("No transactions recorded")
				return
			}
			for _, r := range receipts {
				detail := r.Amount
				if detail != "" {
					if wei, ok := new(big.Int).SetString(detail, 10); ok {
						detail = models.FormatEther(wei) + " ETH"
					}
				} else {
					detail = r.Target
				}
				fmt.Printf("%s  %-18s %-20s block %-10d %s\n",
					time.Unix(r.RecordedAt, 0).Format(time.RFC3339), r.Action, detail, r.Block, r.TxHash)
			}
		},
	}

	var backupDir string
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Create a backup of the receipt journal and logs",
		Run: func(cmd *cobra.Command, args []string) {
			dir, err := cfg.ResolveDataDir()
			if err != nil {
				fail(err)
			}
			backupFile, err := backup.CreateBackup(dir, backupDir)
			if err != nil {
				fail(err)
			}
			fmt.Println(backupFile)
		},
	}
	backupCmd.Flags().StringVarP(&backupDir, "backup-dir", "", "", "Directory where the backup will be stored (default: <data-dir>/backups)")

	// Add flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "", config.DefaultConfigPath(), "YAML config file (env KIPU_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&rpcURL, "rpc-url", "", "", "JSON-RPC endpoint of the node (env KIPU_RPC_URL)")
	rootCmd.PersistentFlags().StringVarP(&contract, "contract", "c", "", "Address of the KipuBank contract (env KIPU_CONTRACT_ADDRESS)")
	rootCmd.PersistentFlags().Uint64VarP(&chainID, "chain-id", "", config.SepoliaChainID, "Required chain id (env KIPU_CHAIN_ID)")
	rootCmd.PersistentFlags().StringVarP(&keystore, "keystore", "k", "", "Encrypted keystore file (env KIPU_KEYSTORE)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "", "", "Directory for logs and the receipt journal (default: ~/.kipu-atm)")
	rootCmd.PersistentFlags().StringVarP(&lang, "lang", "", "", "Language of error messages, en or es (env KIPU_LANG)")
	rootCmd.PersistentFlags().BoolVarP(&autoApprove, "yes", "y", false, "Sign transactions without asking")

	// Add subcommands
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(transactCommand("deposit AMOUNT", "Deposit ETH into the bank",
		func(s *services.BankService) handler { return s.Deposit }))
	rootCmd.AddCommand(transactCommand("withdraw AMOUNT", "Withdraw ETH from the bank",
		func(s *services.BankService) handler { return s.Withdraw }))
	rootCmd.AddCommand(transactCommand("owner-withdraw AMOUNT", "Withdraw bank funds to the owner (owner only)",
		func(s *services.BankService) handler { return s.OwnerWithdraw }))
	rootCmd.AddCommand(transactCommand("transfer-ownership ADDRESS", "Transfer ownership of the bank (owner only)",
		func(s *services.BankService) handler { return s.TransferOwnership }))
	rootCmd.AddCommand(receiptsCmd)
	rootCmd.AddCommand(backupCmd)

	// Execute the root command
	if err := rootCmd.Execute(); err != nil {
		logger.Fatal("Failed to execute command: %v", err)
	}
}
