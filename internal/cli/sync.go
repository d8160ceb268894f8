package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/taskboard/internal/store"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push local boards to the server",
	Long: `Upload your boards to the sync server. The server rejects the upload
if it holds data newer than what this device last saw.

Examples:
  taskboard sync
  taskboard status`,
	RunE: runSync,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show login and sync status",
	RunE:  runStatus,
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.store.State().SignedIn() {
		fmt.Println("Not logged in. Run: taskboard login --token <token>")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.RequestTimeout)
	defer cancel()

	fmt.Println("🔄 Synchronizing...")
	if err := a.store.SyncToDatabase(ctx, nil); err != nil {
		if errors.Is(err, store.ErrSyncInProgress) {
			fmt.Println("Sync already in progress.")
			return nil
		}
		return fmt.Errorf("sync failed: %s", describeSyncError(err))
	}

	st := a.store.State()
	fmt.Printf("✓ Sync complete! Boards: %d, server time: %s\n", len(a.store.Boards()), st.Base.Format("2006-01-02 15:04:05"))
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	st := a.store.State()
	fmt.Printf("Server:      %s\n", a.client.ServerURL())
	if st.SignedIn() {
		fmt.Printf("User ID:     %s\n", st.Session.UserID)
		fmt.Println("Status:      ✓ Logged in")
	} else {
		fmt.Println("Status:      Not logged in")
	}

	boards := a.store.Boards()
	tasks := 0
	for _, b := range boards {
		tasks += len(b.Tasks)
	}
	fmt.Printf("Boards:      %d (%d tasks)\n", len(boards), tasks)

	if st.Dataset != nil && st.Dataset.LastUpdated != 0 {
		fmt.Printf("Last change: %s\n", st.Dataset.UpdatedAt().Format("2006-01-02 15:04:05"))
	}
	if !st.Base.IsZero() {
		fmt.Printf("Last sync:   %s\n", st.Base.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}
