package cmd

import (
	"context"
	"fmt"

	internalApp "github.com/medref/revision-service/internal/app"
	"github.com/medref/revision-service/internal/upgrade"

	"github.com/spf13/cobra"
)

type upgradeFlags struct {
	config string
	dryRun bool
}

// runUpgrade 迁移 config 指向的数据库；dryRun 时只列出待执行的脚本
func runUpgrade(cmd *cobra.Command, f *upgradeFlags) error {
	if f.config == "" {
		path, err := resolveConfigPath()
		if err != nil {
			return fmt.Errorf("resolve config: %w", err)
		}
		f.config = path
	}

	cfg, realpath, err := internalApp.LoadConfig(f.config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "config: %s\n", realpath)

	lg, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := openDatabase(cfg, lg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	mgr := upgrade.NewMigrationManager(db, lg, internalApp.Version, lastVersionFile(realpath))
	if f.dryRun {
		pending, err := mgr.Pending()
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Fprintln(out, "no pending migrations")
		}
		for _, m := range pending {
			fmt.Fprintf(out, "pending %s  %s\n", m.Version(), m.Description())
		}
		return nil
	}

	if err := mgr.Run(context.Background()); err != nil {
		return fmt.Errorf("upgrade failed: %w", err)
	}
	fmt.Fprintln(out, "database upgrade completed")
	return nil
}

func init() {
	f := new(upgradeFlags)
	upgradeCmd := &cobra.Command{
		Use:   "upgrade [-c config_file] [--dry-run]",
		Short: "Apply pending article and revision schema migrations",
		Long: `Apply pending article and revision schema migrations.

Applied versions are recorded in the schema_version table, so running the
command again skips them. --dry-run lists what would be applied.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpgrade(cmd, f)
		},
	}
	upgradeCmd.Flags().StringVarP(&f.config, "config", "c", "", "config file path")
	upgradeCmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "list pending migrations without applying them")
	rootCmd.AddCommand(upgradeCmd)
}
