package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/rowsync/internal/client/api"
	"github.com/iudanet/rowsync/internal/client/iocli"
	"github.com/iudanet/rowsync/internal/client/session"
	"github.com/iudanet/rowsync/internal/client/storage"
	"github.com/iudanet/rowsync/internal/client/storage/boltdb"
	"github.com/iudanet/rowsync/internal/config"
	"github.com/iudanet/rowsync/internal/logger"
	"github.com/iudanet/rowsync/internal/rows"
	wireapi "github.com/iudanet/rowsync/pkg/api"
)

// Server запросы к серверу, не связанные с набором строк
type Server interface {
	Health(ctx context.Context) (*wireapi.HealthResponse, error)
	Views(ctx context.Context) ([]string, error)
}

// Store локальные данные клиента, с которыми работают команды напрямую
type Store interface {
	storage.FilterStorage
	storage.SnapshotStorage
}

type Cli struct {
	io      iocli.IO
	server  Server
	session session.Service
	store   Store
	closer  func() error
}

func New(io iocli.IO, server Server, sessionService session.Service, store Store) *Cli {
	return &Cli{
		io:      io,
		server:  server,
		session: sessionService,
		store:   store,
	}
}

// NewRootCommand создает корневую команду клиента.
// Зависимости создаются из настроек перед выполнением команды.
func NewRootCommand(version string) *cobra.Command {
	c := &Cli{io: iocli.NewStdio()}

	root := c.Command()
	root.Version = version
	root.PersistentPreRunE = c.setup
	root.PersistentPostRunE = c.teardown
	config.ClientFlags(root.PersistentFlags())

	return root
}

// Command создает дерево команд с уже переданными зависимостями
func (c *Cli) Command() *cobra.Command {
	root := &cobra.Command{
		Use:   "rowsync",
		Short: "Edit server views locally and save changes back",
		Long: `rowsync loads rows of a server view into a local snapshot, lets you edit,
insert and delete rows offline and sends only the changed cells back.

Filter expressions:
  Name = "Alice"                 equal (case-sensitive)
  Name ~ ali                     contains, ^ starts with, $ ends with
  Age >= 18 AND NOT(Status = 3)  combine with AND, OR, NOT(...) and parentheses
  Age > MinAge                   compare two columns
  Comment =                      empty value matches NULL`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		c.pingCommand(),
		c.viewsCommand(),
		c.columnsCommand(),
		c.queryCommand(),
		c.showCommand(),
		c.editCommand(),
		c.insertCommand(),
		c.deleteCommand(),
		c.statusCommand(),
		c.saveCommand(),
		c.rollbackCommand(),
		c.parseCommand(),
		c.filterCommand(),
	)

	return root
}

// setup читает настройки и открывает локальную базу
func (c *Cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadClient(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := boltdb.New(cmd.Context(), cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	apiClient := api.NewClient(cfg.Server, cfg.Timeout)

	c.server = apiClient
	c.store = store
	c.session = session.NewService(apiClient, store, store, store, log)
	c.closer = store.Close

	log.Debug("Client started", "server", cfg.Server, "db", cfg.DB)
	return nil
}

func (c *Cli) teardown(_ *cobra.Command, _ []string) error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// loadView восстанавливает снимок view с понятной ошибкой, если view не открыт
func (c *Cli) loadView(ctx context.Context, view string) (*rows.RowSet, error) {
	rs, err := c.session.Load(ctx, view)
	if errors.Is(err, storage.ErrSnapshotNotFound) {
		return nil, fmt.Errorf("view %s is not loaded, run 'rowsync query %s' first", view, view)
	}
	return rs, err
}

// findRow ищет строку снимка по идентификатору или по условию COLUMN=VALUE.
// Условие должно выбрать ровно одну строку.
func findRow(rs *rows.RowSet, arg string) (*rows.Row, error) {
	if columnID, value, ok := strings.Cut(arg, "="); ok {
		columnID = strings.TrimSpace(columnID)
		if rs.ColumnIndex(columnID) < 0 {
			return nil, fmt.Errorf("unknown column %q", columnID)
		}

		found := rows.FilterRows(rs, columnID, value)
		switch len(found) {
		case 0:
			return nil, fmt.Errorf("row %s not found in %s", arg, rs.ViewName())
		case 1:
			return found[0], nil
		default:
			return nil, fmt.Errorf("%d rows match %s in %s, use row id", len(found), arg, rs.ViewName())
		}
	}

	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid row id %q", arg)
	}
	row := rs.FindRow(id)
	if row == nil {
		return nil, fmt.Errorf("row %d not found in %s", id, rs.ViewName())
	}
	return row, nil
}

// assign применяет присваивания вида COLUMN=VALUE. Пустое значение означает NULL.
func assign(rs *rows.RowSet, row *rows.Row, assignments []string) error {
	for _, a := range assignments {
		columnID, value, ok := strings.Cut(a, "=")
		if !ok {
			return fmt.Errorf("invalid assignment %q, expected COLUMN=VALUE", a)
		}

		col, ok := rs.Column(strings.TrimSpace(columnID))
		if !ok {
			return fmt.Errorf("unknown column %q", columnID)
		}
		if col.ReadOnly {
			return fmt.Errorf("column %s is read-only", col.ID)
		}

		idx := rs.ColumnIndex(col.ID)
		if value == "" {
			row.PreliminaryUpdateValue(idx, nil)
			continue
		}
		row.PreliminaryUpdate(idx, value)
	}
	return nil
}

// changeCounts считает несохраненные изменения набора
func changeCounts(rs *rows.RowSet) (inserted, updated, deleted int) {
	changes := rs.GetChanges()
	if changes == nil {
		return 0, 0, 0
	}
	for _, row := range changes.Rows() {
		switch row.State() {
		case rows.StateMarkedForInsert:
			inserted++
		case rows.StateMarkedForDelete:
			deleted++
		case rows.StateDirty:
			updated++
		}
	}
	return inserted, updated, deleted
}
