package cli

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pfrederiksen/parl-committees/internal/config"
	"github.com/pfrederiksen/parl-committees/internal/fetch"
	"github.com/pfrederiksen/parl-committees/internal/importer"
	"github.com/pfrederiksen/parl-committees/internal/logger"
	"github.com/pfrederiksen/parl-committees/internal/model"
	"github.com/pfrederiksen/parl-committees/internal/store"
)

var (
	flagParliament int
	flagSession    int
	flagCommittee  string
	flagDSN        string
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "parl-committees",
		Short: "Import parliamentary committee metadata",
		Long: `A batch importer for parliamentary committee metadata.
Fetches the committee directory and per-committee meeting pages for one
parliament/session, and reconciles them against the database. Intended to
run from a scheduler; failures surface through logs and the exit code.`,
	}
	root.AddCommand(newImportCmd())
	return root
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import committees, meetings, and studies for one session",
		RunE:  runImport,
	}

	cmd.Flags().IntVar(&flagParliament, "parliament", 0, "Parliament number (required)")
	cmd.Flags().IntVar(&flagSession, "session", 0, "Session number (required)")
	cmd.Flags().StringVar(&flagCommittee, "committee", "", "Only import meetings for this committee acronym")
	cmd.Flags().StringVar(&flagDSN, "dsn", "", "Database DSN (overrides PARL_DATABASE_URL)")

	cmd.MarkFlagRequired("parliament")
	cmd.MarkFlagRequired("session")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	dsn := cfg.DatabaseURL
	if flagDSN != "" {
		dsn = flagDSN
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer log.Sync()

	db, err := openDB(dsn)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}

	st := store.New(db, log)
	imp := importer.New(st, fetch.New(cfg.HTTPTimeout), log, cfg.BaseURL)

	ctx := cmd.Context()
	session, err := st.GetOrCreateSession(ctx, flagParliament, flagSession)
	if err != nil {
		return err
	}

	if err := imp.ImportCommitteeList(ctx, session); err != nil {
		return fmt.Errorf("importing committee list: %w", err)
	}

	if flagCommittee != "" {
		acronym := strings.ToUpper(strings.TrimSpace(flagCommittee))
		committee, err := st.CommitteeByAcronym(ctx, session.ID, acronym)
		if err != nil {
			return err
		}
		if committee == nil {
			return fmt.Errorf("no committee %q in session %d-%d", acronym, flagParliament, flagSession)
		}
		return imp.ImportCommitteeMeetings(ctx, committee, session)
	}

	return imp.ImportCommitteeDocuments(ctx, session)
}

func openDB(dsn string) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return gorm.Open(postgres.Open(dsn), gormCfg)
	}
	return gorm.Open(sqlite.Open(dsn), gormCfg)
}
