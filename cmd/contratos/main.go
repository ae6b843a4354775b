// contratos is a terminal reviewer for contract documents: it renders the
// document with its formatting and annotation marks, and lets the reviewer
// select clauses and attach issues or bookmarks that persist to the
// contract backend (or a local store when offline).
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Xlonenzo/contratos/cmd/contratos/ui"
	"github.com/Xlonenzo/contratos/internal/annotation"
	"github.com/Xlonenzo/contratos/internal/api"
	"github.com/Xlonenzo/contratos/internal/config"
	"github.com/Xlonenzo/contratos/internal/editor"
	"github.com/Xlonenzo/contratos/internal/logging"
	"github.com/Xlonenzo/contratos/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string
	apiURL     string
	offline    bool
	contractID int64

	// Logger
	logger *zap.Logger

	cfg config.Config
)

// rootCmd opens the interactive editor on a contract document file.
var rootCmd = &cobra.Command{
	Use:   "contratos [arquivo]",
	Short: "contratos - revisão e anotação de contratos no terminal",
	Long: `contratos abre um documento de contrato para revisão interativa.

Selecione trechos para aplicar formatação (negrito, itálico, sublinhado,
alinhamento) e para registrar apontamentos e marcadores que são enviados
ao backend de contratos. Sem conexão, use --offline para persistir as
anotações em um banco local.`,
	Args: cobra.MaximumNArgs(1),
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runEditor,
}

// openCmd is the explicit form of the default action.
var openCmd = &cobra.Command{
	Use:   "open [arquivo]",
	Short: "Abre um documento de contrato no editor",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEditor,
}

// exportCmd prints the document's plain text.
var exportCmd = &cobra.Command{
	Use:   "export [arquivo]",
	Short: "Exporta o texto puro do documento",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

// annotationsCmd lists the annotations registered for a contract.
var annotationsCmd = &cobra.Command{
	Use:   "annotations",
	Short: "Lista os apontamentos e marcadores de um contrato",
	RunE:  runAnnotations,
}

func init() {
	// Assigned here rather than in the composite literal because the
	// closure references rootCmd, which would be an initialization cycle.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if apiURL != "" {
			cfg.API.BaseURL = apiURL
		}
		if offline {
			cfg.Storage.Offline = true
		}

		interactive := cmd.Name() == rootCmd.Name() || cmd.Name() == openCmd.Name()
		logCfg := cfg.Logging
		if interactive && logCfg.File == "" && !verbose {
			// The TUI owns the terminal; keep runtime logs out of it.
			logCfg.Level = "error"
		}
		logger, err = logging.Build(logCfg, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "logs detalhados")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "arquivo de configuração")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "URL do backend de contratos")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "persistir anotações localmente")
	rootCmd.PersistentFlags().Int64Var(&contractID, "contract", 0, "id do contrato")

	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(annotationsCmd)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".contratos", "config.yaml")
}

// newService picks the annotation backend: HTTP client by default, local
// SQLite store when offline. The caller closes via the returned func.
func newService() (annotation.Service, func(), error) {
	if cfg.Storage.Offline {
		st, err := store.Open(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open local store: %w", err)
		}
		return st, func() { _ = st.Close() }, nil
	}
	client := api.NewClient(api.Config{
		BaseURL: cfg.API.BaseURL,
		Token:   cfg.API.Token,
		Timeout: cfg.APITimeout(),
	}, api.WithLogger(logger))
	return client, func() {}, nil
}

func runEditor(cmd *cobra.Command, args []string) error {
	var initial []byte
	var docPath string
	if len(args) == 1 {
		docPath = args[0]
		data, err := os.ReadFile(docPath)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("read document: %w", err)
		}
		initial = data
	}

	svc, closeSvc, err := newService()
	if err != nil {
		return err
	}
	defer closeSvc()

	ed := editor.New(initial,
		editor.WithLogger(logger),
		editor.WithHistoryLimit(cfg.Editor.HistoryLimit),
	)

	var save ui.SaveFunc
	if docPath != "" {
		save = func(data []byte) error {
			if err := os.MkdirAll(filepath.Dir(docPath), 0o755); err != nil {
				return err
			}
			return os.WriteFile(docPath, data, 0o644)
		}
	}

	name := "novo documento"
	if docPath != "" {
		name = filepath.Base(docPath)
	}

	app := ui.NewAppModel(ed, contractID, name, svc,
		ui.ThemeByName(cfg.Editor.Theme), save, logger)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("editor exited: %w", err)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	ed := editor.New(data, editor.WithLogger(logger))
	text, err := ed.PlainText(nil)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func runAnnotations(cmd *cobra.Command, args []string) error {
	if contractID == 0 {
		return fmt.Errorf("informe o contrato com --contract")
	}

	svc, closeSvc, err := newService()
	if err != nil {
		return err
	}
	defer closeSvc()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	records, err := svc.ListAnnotations(ctx, contractID)
	if err != nil {
		return fmt.Errorf("list annotations: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nenhuma anotação registrada.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIPO\tTÍTULO\tPRIORIDADE\tSTATUS\tTRECHO")
	for _, rec := range records {
		snippet := rec.SelectionText
		if r := []rune(snippet); len(r) > 40 {
			snippet = string(r[:37]) + "..."
		}
		snippet = strings.ReplaceAll(snippet, "\n", " ")
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			rec.ID, rec.Kind, rec.Title, rec.Priority, rec.Status, snippet)
	}
	return w.Flush()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
