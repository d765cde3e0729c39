package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ctks/admin-console/internal/apiclient"
	"github.com/ctks/admin-console/internal/config"
	"github.com/ctks/admin-console/internal/logger"
	"github.com/ctks/admin-console/internal/session"
)

// cliSession is the one-admin session kept in the session file.
type cliSession struct {
	cfg     config.Config
	store   *session.FileStore
	manager *session.Manager
}

func loadCLISession() (*cliSession, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level)
	store := session.NewFileStore(cfg.Session.File)
	return &cliSession{
		cfg:     cfg,
		store:   store,
		manager: session.NewManager(store, newAPIClient(cfg, logger.Log), logger.Named("session")),
	}, nil
}

// current returns the saved admin session, or an error telling the user to
// log in.
func (s *cliSession) current(cmd *cobra.Command) (*session.Session, error) {
	sess, err := s.manager.Current(cmd.Context(), "")
	if errors.Is(err, session.ErrNoSession) || (err == nil && !sess.IsAdmin()) {
		return nil, errors.New("not logged in; run `ctks-admin session login`")
	}
	return sess, err
}

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "session", Short: "Manage the CLI admin session"}

	var username string
	login := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadCLISession()
			if err != nil {
				return err
			}
			in := bufio.NewReader(cmd.InOrStdin())
			if username == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Username: ")
				line, _ := in.ReadString('\n')
				username = strings.TrimSpace(line)
			}
			password, err := promptPassword(cmd, in, "Password: ")
			if err != nil {
				return err
			}
			sess, err := s.manager.Login(cmd.Context(), username, string(password))
			if err != nil {
				return errors.New(apiclient.MessageOf(err, loginFailure(err)))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", sess.Username, sess.Role)
			return nil
		},
	}
	login.Flags().StringVarP(&username, "username", "u", "", "admin username")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Log out and remove the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadCLISession()
			if err != nil {
				return err
			}
			if err := s.manager.Logout(cmd.Context(), ""); err != nil && !errors.Is(err, session.ErrNoSession) {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadCLISession()
			if err != nil {
				return err
			}
			sess, err := s.current(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) since %s\nsession file: %s\n",
				sess.Username, sess.Role, sess.CreatedAt.Format("Jan 02, 2006 15:04"), s.store.Path())
			return nil
		},
	}

	cmd.AddCommand(login, logout, status)
	return cmd
}

func loginFailure(err error) string {
	if errors.Is(err, session.ErrNotAdmin) {
		return session.NotAdminMessage
	}
	return "Login failed"
}

// promptPassword reads without echo on a terminal, plain lines otherwise
// (piped input).
func promptPassword(cmd *cobra.Command, in *bufio.Reader, prompt string) ([]byte, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			return nil, err
		}
		return []byte(strings.TrimRight(line, "\r\n")), nil
	}
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.OutOrStdout())
	return pass, err
}
