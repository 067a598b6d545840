// Command passwd sets the password of a user directly in the database.
//
//	passwd -user ana [-create -email ana@example.com -role member -role-id 2] [-d dsn]
//
// The password is read from the terminal without echo, or as one line from
// stdin when stdin is not a terminal. Server configuration sources (-c, env,
// -d, -b, -u) select the database and refresh token store.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/romcom/romcom-auth/internal/common"
	"github.com/romcom/romcom-auth/internal/cryptox"
	"github.com/romcom/romcom-auth/internal/flagx"
	"github.com/romcom/romcom-auth/internal/logging"
	"github.com/romcom/romcom-auth/internal/prompt"
	"github.com/romcom/romcom-auth/internal/server/config"
	"github.com/romcom/romcom-auth/internal/server/models"
	"github.com/romcom/romcom-auth/internal/server/repositories/repomanager"
	"github.com/romcom/romcom-auth/internal/server/services"
)

type options struct {
	userName string
	create   bool
	email    string
	roleName string
	roleID   int64
}

func parseOptions(args []string) (*options, error) {
	args = flagx.FilterArgs(args, []string{"-user", "-create", "-email", "-role", "-role-id"})

	o := &options{}
	fs := flag.NewFlagSet("passwd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&o.userName, "user", "", "username")
	fs.BoolVar(&o.create, "create", false, "create the user when missing")
	fs.StringVar(&o.email, "email", "", "email for a created user")
	fs.StringVar(&o.roleName, "role", "member", "role name for a created user")
	fs.Int64Var(&o.roleID, "role-id", 2, "role id for a created user")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(o.userName) == "" {
		return nil, errors.New("-user is required")
	}
	return o, nil
}

func (o *options) template() *models.User {
	if !o.create {
		return nil
	}
	return &models.User{Email: o.email, RoleID: o.roleID, RoleName: o.roleName}
}

// readPassword asks twice on a terminal; otherwise it takes the first line
// of in.
func readPassword(in io.Reader, out io.Writer, terminal bool) (string, error) {
	if !terminal {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	pw, err := prompt.GetPassword(out, "New password")
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)

	confirm, err := prompt.GetPassword(out, "Confirm password")
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(confirm)

	if string(pw) != string(confirm) {
		return "", errors.New("passwords do not match")
	}
	return string(pw), nil
}

func run(ctx context.Context, args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	password, err := readPassword(os.Stdin, os.Stderr, prompt.IsTerminal())
	if err != nil {
		return err
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	var m repomanager.RepositoryManager = repomanager.NewPostgresRepositoryManager()
	if cfg.RefreshTokenStore == config.StoreRedis {
		ropts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		client := redis.NewClient(ropts)
		defer client.Close()
		m = repomanager.NewRedisRepositoryManager(client)
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	hasher, err := cryptox.NewHasher(cfg.HasherParams())
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Env, os.Stderr)
	svc := services.NewCredentialService(db, m, hasher, logger)

	u, revoked, err := svc.SetPassword(ctx, opts.userName, password, opts.template())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "password set for %s (id=%d), %d session(s) revoked\n", u.UserName, u.ID, revoked)
	return nil
}

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "passwd:", err)
		os.Exit(1)
	}
}
