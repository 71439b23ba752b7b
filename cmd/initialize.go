package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mnemograph/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Create a .mnemograph.db database in the given directory (default: current)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		path := filepath.Join(dir, ".mnemograph.db")
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("database already exists at %s", path)
		}

		s, err := store.OpenSQLite(path)
		if err != nil {
			return err
		}
		if err := s.Close(); err != nil {
			return err
		}
		fmt.Printf("Initialized database at %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
