// Package cli implements docxlatectl, the command-line front end for key
// management and one-shot document translation.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ericfisherdev/docxlate/internal/application"
	"github.com/ericfisherdev/docxlate/internal/domain/model"
)

// Runtime is what the subcommands operate on.
type Runtime struct {
	Credentials     *application.CredentialService
	NewOrchestrator func() *application.Orchestrator
	// Close releases the runtime's resources. It may be nil.
	Close func() error
}

// Settings are the resolved storage settings passed to a Bootstrap.
type Settings struct {
	DBPath    string
	SecretKey string
}

// Bootstrap opens the stores and wires the application services.
type Bootstrap func(ctx context.Context, s Settings) (*Runtime, error)

// CreateRootCommand creates the root cobra command with every subcommand.
// v resolves flags, DOCXLATE_* environment variables and the optional
// config file, in that order of precedence.
func CreateRootCommand(flags *Flags, v *viper.Viper, boot Bootstrap) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "docxlatectl",
		Short: "Translate Word documents and manage provider API keys",
		Long: `docxlatectl translates DOC/DOCX files with a stored provider key and
manages the encrypted key store shared with the docxlate server.

Examples:
  docxlatectl keys add OpenAI sk-...
  docxlatectl keys list
  docxlatectl translate report.docx --to French`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return InitConfig(v, flags.CfgFile)
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.docxlate.yaml)")
	rootCmd.PersistentFlags().StringVar(&flags.DBPath, "db", flags.DBPath, "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&flags.SecretKey, "secret-key", "", "passphrase for the encrypted key store")
	_ = v.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db"))
	_ = v.BindPFlag("secret_key", rootCmd.PersistentFlags().Lookup("secret-key"))

	open := func(cmd *cobra.Command) (*Runtime, error) {
		return boot(cmd.Context(), Settings{
			DBPath:    v.GetString("db_path"),
			SecretKey: v.GetString("secret_key"),
		})
	}

	rootCmd.AddCommand(newKeysCommand(open), newTranslateCommand(flags, v, open))
	return rootCmd
}

// InitConfig points v at the config file (or $HOME/.docxlate.yaml and
// ./.docxlate.yaml) and the DOCXLATE_ environment. A missing default config
// file is not an error.
func InitConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".docxlate")
	}

	v.SetEnvPrefix("DOCXLATE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

type opener func(cmd *cobra.Command) (*Runtime, error)

func closeRuntime(rt *Runtime) {
	if rt.Close != nil {
		_ = rt.Close()
	}
}

func newKeysCommand(open opener) *cobra.Command {
	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage stored provider API keys",
	}

	addCmd := &cobra.Command{
		Use:   "add <provider> <secret>",
		Short: "Store or replace the API key for a provider",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := resolveProvider(args[0])
			if err != nil {
				return err
			}
			secret, ok, err := model.NormalizeKey(provider, args[1])
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("API key must not be empty")
			}

			rt, err := open(cmd)
			if err != nil {
				return err
			}
			defer closeRuntime(rt)

			if err := rt.Credentials.Add(cmd.Context(), provider, secret); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API key saved for %s\n", provider)
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:     "remove <provider>",
		Aliases: []string{"rm"},
		Short:   "Delete the API key for a provider",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := resolveProvider(args[0])
			if err != nil {
				return err
			}

			rt, err := open(cmd)
			if err != nil {
				return err
			}
			defer closeRuntime(rt)

			if err := rt.Credentials.Remove(cmd.Context(), provider); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API key removed for %s\n", provider)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List providers with a stored API key",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := open(cmd)
			if err != nil {
				return err
			}
			defer closeRuntime(rt)

			creds := rt.Credentials.List()
			out := cmd.OutOrStdout()
			if len(creds) == 0 {
				fmt.Fprintln(out, "No API keys stored.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PROVIDER\tKEY\tUPDATED")
			for _, c := range creds {
				updated := "-"
				if !c.UpdatedAt.IsZero() {
					updated = c.UpdatedAt.UTC().Format(time.DateTime)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Provider, model.MaskSecret(c.Secret), updated)
			}
			return tw.Flush()
		},
	}

	keysCmd.AddCommand(addCmd, removeCmd, listCmd)
	return keysCmd
}

func newTranslateCommand(flags *Flags, v *viper.Viper, open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate <file>",
		Short: "Translate a DOC/DOCX file and write the translated DOCX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, args[0], flags, v, open)
		},
	}

	cmd.Flags().StringVarP(&flags.Provider, "provider", "p", flags.Provider, "translation provider")
	cmd.Flags().StringVarP(&flags.From, "from", "f", flags.From, "source language, or \"Auto Detect\"")
	cmd.Flags().StringVarP(&flags.To, "to", "t", flags.To, "target language")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "output path (default is translated_<name> next to the input)")
	cmd.Flags().StringVar(&flags.APIKey, "api-key", "", "API key to use instead of the stored one")
	_ = v.BindPFlag("api_key", cmd.Flags().Lookup("api-key"))

	return cmd
}

func runTranslate(cmd *cobra.Command, path string, flags *Flags, v *viper.Viper, open opener) error {
	provider, err := resolveProvider(flags.Provider)
	if err != nil {
		return err
	}
	if !slices.Contains(model.SourceLanguages(), flags.From) {
		return fmt.Errorf("unknown source language %q (choose from %s)", flags.From, strings.Join(model.SourceLanguages(), ", "))
	}
	if !slices.Contains(model.Languages, flags.To) {
		return fmt.Errorf("unknown target language %q (choose from %s)", flags.To, strings.Join(model.Languages, ", "))
	}

	doc, err := readDocument(path)
	if err != nil {
		return err
	}

	rt, err := open(cmd)
	if err != nil {
		return err
	}
	defer closeRuntime(rt)

	secret := strings.TrimSpace(v.GetString("api_key"))
	if secret == "" {
		stored, ok := rt.Credentials.Get(provider)
		if !ok {
			return fmt.Errorf("no API key stored for %s: run \"docxlatectl keys add %s <key>\"", provider, provider)
		}
		secret = stored
	}

	ctx := cmd.Context()
	orch := rt.NewOrchestrator()
	if err := orch.SelectFile(ctx, doc); err != nil {
		return err
	}

	if err := orch.Translate(ctx, model.TranslationRequest{
		Secret:         secret,
		Provider:       provider,
		SourceLanguage: flags.From,
		TargetLanguage: flags.To,
	}); err != nil {
		return err
	}

	export, err := orch.Download(ctx)
	if err != nil {
		return err
	}
	if export == nil {
		return errors.New("translation produced no document")
	}

	output := flags.Output
	if output == "" {
		output = filepath.Join(filepath.Dir(path), export.FileName)
	}
	if err := os.WriteFile(output, export.Data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	out := cmd.OutOrStdout()
	if detected := orch.State().DetectedLanguage; detected != "" {
		fmt.Fprintf(out, "Detected source language: %s\n", detected)
	}
	fmt.Fprintf(out, "Wrote %s\n", output)
	return nil
}

// readDocument reads at most one byte past the upload cap so oversized files
// are rejected by the orchestrator without loading them whole.
func readDocument(path string) (model.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Document{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, model.MaxDocumentSize+1))
	if err != nil {
		return model.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}

	doc := model.Document{Name: filepath.Base(path), Size: int64(len(data)), Content: data}
	if doc.Size > model.MaxDocumentSize {
		doc.Content = nil
	}
	return doc, nil
}

// resolveProvider matches name against the catalogue, ignoring case.
func resolveProvider(name string) (string, error) {
	for _, p := range model.Providers {
		if strings.EqualFold(p, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q (choose from %s)", name, strings.Join(model.Providers, ", "))
}
