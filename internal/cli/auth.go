package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/model"
	"github.com/existflow/taskboard/internal/reconcile"
	"github.com/existflow/taskboard/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login with a token from the sync server",
	Long: `Log in with a bearer token issued by the sync server. Boards created
before login are moved to your account when the server has none; when both
sides have boards you choose which to keep.

Examples:
  taskboard login --token eyJhbGciOi...
  taskboard login --token eyJhbGciOi... --resolve local`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout and return to anonymous boards",
	RunE:  runLogout,
}

var (
	loginToken   string
	loginID      string
	loginAvatar  string
	loginResolve string
)

func init() {
	loginCmd.Flags().StringVar(&loginToken, "token", "", "Bearer token from the sync server")
	loginCmd.Flags().StringVar(&loginID, "id", "", "User id (defaults to the token subject)")
	loginCmd.Flags().StringVar(&loginAvatar, "avatar", "", "Avatar URL")
	loginCmd.Flags().StringVar(&loginResolve, "resolve", "", "Conflict resolution: local or remote")
	_ = loginCmd.MarkFlagRequired("token")
}

func runLogin(cmd *cobra.Command, args []string) error {
	switch loginResolve {
	case "", "local", "remote":
	default:
		return fmt.Errorf("--resolve must be local or remote")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := session.New(loginID, loginAvatar, loginToken)
	if err != nil {
		return fmt.Errorf("invalid login: %w", err)
	}
	sess.ServerURL = a.client.ServerURL()

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.RequestTimeout)
	defer cancel()

	fmt.Printf("🔄 Logging in as %s...\n", sess.UserID)
	if err := a.engine.Login(ctx, sess); err != nil {
		if errors.Is(err, reconcile.ErrSuperseded) {
			return err
		}
		// Still logged in; the server copy is picked up on the next login
		fmt.Printf("⚠️  Could not reach the server: %s\n", describeSyncError(err))
	}

	if a.engine.Phase() == reconcile.Conflicted {
		if err := resolveConflict(ctx, a); err != nil {
			a.engine.Logout()
			return err
		}
	}

	if err := sess.Save(a.sessionPath); err != nil {
		return err
	}
	logger.Info("Session saved", logger.F("user", sess.UserID))

	fmt.Printf("✅ Logged in as %s (%d boards)\n", sess.UserID, len(a.store.Boards()))
	return nil
}

func resolveConflict(ctx context.Context, a *app) error {
	c, ok := a.engine.Conflict()
	if !ok {
		return nil
	}

	choice := loginResolve
	if choice == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("this device and your account both have boards, rerun with --resolve local or --resolve remote")
		}
		var err error
		choice, err = promptResolution(c)
		if err != nil {
			return fmt.Errorf("login cancelled: %w", err)
		}
	}

	if choice == "remote" {
		if err := a.engine.ResolveUseRemote(); err != nil {
			return err
		}
		fmt.Printf("✓ Using %d board(s) from your account\n", len(c.Remote.Boards))
		return nil
	}

	if err := a.engine.ResolveKeepLocal(ctx); err != nil {
		fmt.Printf("⚠️  Boards merged locally but not uploaded: %s\n", describeSyncError(err))
		return nil
	}
	fmt.Printf("✓ Merged %d local and %d account board(s)\n", len(c.Local.Boards), len(c.Remote.Boards))
	return nil
}

func promptResolution(c model.Conflict) (string, error) {
	choice := "local"
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("This device and your account both have boards").
				Description(fmt.Sprintf("On this device: %d board(s). In your account: %d board(s).",
					len(c.Local.Boards), len(c.Remote.Boards))).
				Options(
					huh.NewOption("Keep both (device boards first, then upload)", "local"),
					huh.NewOption("Use my account's boards (discard device boards)", "remote"),
				).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return choice, nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.store.State().SignedIn() {
		fmt.Println("Not logged in.")
		return nil
	}

	fmt.Println("🔄 Logging out...")
	a.engine.Logout()
	if err := session.Clear(a.sessionPath); err != nil {
		return err
	}

	fmt.Println("✅ Logged out successfully.")
	return nil
}
