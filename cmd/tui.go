package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/simonvc/moneymanager/internal/client"
	"github.com/simonvc/moneymanager/internal/logging"
	"github.com/simonvc/moneymanager/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	Long:  "Launch the terminal UI. Without --server an embedded server is started on a free local port against --db.",
	RunE: func(cmd *cobra.Command, args []string) error {
		serverAddr := flagServer

		if !cmd.Flags().Changed("server") {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			// Anything below error level would draw over the UI.
			logging.SetupWithLevel(slog.LevelError)

			st, srv, err := openServer(ctx, "127.0.0.1:0", false)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer st.Close()

			ln, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ctx, ln); err != nil {
					slog.Error("embedded server", "error", err)
				}
			}()
			serverAddr = "http://" + ln.Addr().String()

			// Wait for server to be ready
			c := client.New(serverAddr)
			waitCtx, waitCancel := context.WithTimeout(ctx, 5*time.Second)
			defer waitCancel()
			for {
				if err := c.Health(waitCtx); err == nil {
					break
				}
				if waitCtx.Err() != nil {
					return fmt.Errorf("timeout waiting for embedded server")
				}
				time.Sleep(50 * time.Millisecond)
			}
		}

		c := client.New(serverAddr)
		app := tui.NewApp(c, cfg.Currency)
		p := tea.NewProgram(app, tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
