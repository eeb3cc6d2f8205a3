package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mirzaaghazadeh/strix/internal/config"
	"github.com/mirzaaghazadeh/strix/internal/format"
)

var configFlags struct {
	showSecrets bool
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write the persisted Strix settings",
	}

	get := &cobra.Command{
		Use:   "get KEY",
		Short: "Print a stored value",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigGet,
	}
	set := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Store a value",
		Args:  cobra.ExactArgs(2),
		RunE:  runConfigSet,
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "Show every stored setting",
		Args:  cobra.NoArgs,
		RunE:  runConfigList,
	}
	list.Flags().BoolVar(&configFlags.showSecrets, "show-secrets", false, "Print API keys in clear")
	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE:  runConfigPath,
	}

	cmd.AddCommand(get, set, list, path)
	return cmd
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	store, err := configStore()
	if err != nil {
		return err
	}
	v, err := store.Get(args[0], "")
	if err != nil {
		return err
	}
	if v == "" {
		return &ExitError{Code: 1, Message: fmt.Sprintf("%s is not set", args[0])}
	}
	fmt.Fprintln(cmd.OutOrStdout(), v)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := strings.TrimSpace(args[0]), args[1]
	if key == "" || strings.ContainsAny(key, "= \t\n") {
		return &ExitError{Code: 1, Message: fmt.Sprintf("invalid key %q", args[0])}
	}
	store, err := configStore()
	if err != nil {
		return err
	}
	if err := store.Set(key, value); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !config.Known(key) {
		fmt.Fprintf(out, "note: %s is not a recognized Strix setting; stored anyway\n", key)
	}
	fmt.Fprintf(out, "%s Saved %s to %s\n", format.BoolMark(true), key, store.Path())
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	store, err := configStore()
	if err != nil {
		return err
	}
	rec, err := store.Load()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(rec) == 0 {
		fmt.Fprintf(out, "No settings stored in %s\n", store.Path())
		fmt.Fprintln(out, "Run 'strix config set STRIX_LLM openai/gpt-5' to get started.")
		return nil
	}

	tb := format.NewTable()
	tb.Title(store.Path())
	tb.Header("Key", "Value", "Known")
	for _, k := range rec.Keys() {
		v := rec[k]
		if secretKey(k) && !configFlags.showSecrets {
			v = maskSecret(v)
		}
		tb.Row(k, format.Truncate(v, 60), format.BoolMark(config.Known(k)))
	}
	fmt.Fprintln(out, tb.String())
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	store, err := configStore()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), store.Path())
	return nil
}

func secretKey(key string) bool {
	for _, f := range config.Fields {
		if f.Key == key {
			return f.Secret
		}
	}
	return strings.HasSuffix(key, "_KEY") || strings.HasSuffix(key, "_TOKEN")
}

// maskSecret keeps the last four characters of long values.
func maskSecret(v string) string {
	r := []rune(v)
	if len(r) <= 8 {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", 8) + string(r[len(r)-4:])
}
