package commands

import (
	"database/sql"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/valstore/valstore/db"
	"github.com/valstore/valstore/errors"
	"github.com/valstore/valstore/logger"
)

// DbCmd represents the db (database) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the valstore database",
	Long: `Manage database operations.

Examples:
  valstore db migrate      # Apply pending schema migrations
  valstore db stats        # Show per-collection document counts`,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE:  runDbMigrate,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-collection document counts",
	RunE:  runDbStats,
}

func init() {
	DbCmd.AddCommand(dbMigrateCmd)
	DbCmd.AddCommand(dbStatsCmd)
}

func openDatabase(cmd *cobra.Command) (*sql.DB, string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to load configuration")
	}
	database, err := db.Open(cfg.Database.Path, logger.Logger)
	if err != nil {
		return nil, "", err
	}
	return database, cfg.Database.Path, nil
}

func runDbMigrate(cmd *cobra.Command, args []string) error {
	database, path, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database, logger.Logger); err != nil {
		return errors.Wrap(err, "migration failed")
	}
	pterm.Success.Printfln("Migrations applied to %s", path)
	return nil
}

// Collections reported by db stats, in display order.
var statsTables = []struct {
	label string
	table string
}{
	{"Projects", "projects"},
	{"Data packages", "data_packages"},
	{"Data stores", "data_stores"},
	{"Data resources", "data_resources"},
	{"Experiments", "experiments"},
	{"Run configs", "run_configs"},
	{"Constraints", "constraints"},
	{"Runs", "runs"},
	{"Run metadata", "run_metadata"},
	{"Environments", "run_environments"},
	{"Artifacts", "artifact_metadata"},
	{"Data profiles", "run_data_profiles"},
	{"Validation reports", "run_validation_reports"},
	{"Data schemas", "run_data_schemas"},
}

func runDbStats(cmd *cobra.Command, args []string) error {
	database, path, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	rows := pterm.TableData{{"Collection", "Documents"}}
	for _, t := range statsTables {
		var count int
		err := database.QueryRow("SELECT COUNT(*) FROM " + t.table).Scan(&count)
		if err != nil && err != sql.ErrNoRows {
			return errors.Wrapf(err, "failed to count %s", t.table)
		}
		rows = append(rows, []string{t.label, fmt.Sprintf("%d", count)})
	}

	pterm.DefaultSection.Printfln("Database: %s", path)
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
