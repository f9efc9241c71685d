package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"karolbroda.com/duet/internal/colors"
	"karolbroda.com/duet/internal/player"
)

var (
	// flags for player test
	testService string
)

const mprisRoot = "/org/mpris/MediaPlayer2"

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "mpris player utilities",
	Long:  `discover and test mpris-compatible music players on your system.`,
}

var playerListCmd = &cobra.Command{
	Use:   "list",
	Short: "list available mpris players",
	Long:  `list all mpris-compatible music players currently running on the system.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bus, err := player.SessionBus()
		if err != nil {
			return fmt.Errorf("failed to connect to session bus: %w", err)
		}
		defer bus.Close()

		services, err := player.ListPlayers(bus)
		if err != nil {
			return err
		}

		if len(services) == 0 {
			fmt.Println("no mpris players found")
			fmt.Println("\ncheck if your music player is running and supports mpris")
			return nil
		}

		fmt.Printf("found %d mpris player(s):\n\n", len(services))
		for _, service := range services {
			if identity := playerIdentity(bus, service); identity != "" {
				fmt.Printf("  %-12s %s (%s)\n", player.ShortName(service), service, identity)
			} else {
				fmt.Printf("  %-12s %s\n", player.ShortName(service), service)
			}
		}

		fmt.Println("\nuse --mpris-service with either name to pick a player")
		return nil
	},
}

var playerTestCmd = &cobra.Command{
	Use:   "test",
	Short: "test connection to mpris player",
	Long:  `test the connection to an mpris player and display basic information.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		serviceName := cfg.MprisService
		if testService != "" {
			serviceName = testService
		}
		serviceName = player.ServiceName(serviceName)

		bus, err := player.SessionBus()
		if err != nil {
			return fmt.Errorf("failed to connect to session bus: %w", err)
		}
		defer bus.Close()

		fmt.Printf("testing connection to: %s\n\n", serviceName)

		svc, err := player.NewService(bus, serviceName, nil)
		if err != nil {
			return fmt.Errorf("failed to connect to player: %w", err)
		}
		if err := svc.Poll(); err != nil {
			return fmt.Errorf("player did not answer: %w", err)
		}

		if identity := playerIdentity(bus, serviceName); identity != "" {
			fmt.Printf("player identity: %s\n", identity)
		}
		fmt.Printf("status: connected ✓\n\n")

		state := svc.GetState()
		if !state.Track.IsValid() {
			fmt.Println("no track currently playing")
			return nil
		}

		fmt.Println("current track:")
		fmt.Printf("  title:  %s\n", state.Track.Title)
		fmt.Printf("  artist: %s\n", state.Track.Artist)
		if state.Track.Album != "" {
			fmt.Printf("  album:  %s\n", state.Track.Album)
		}
		fmt.Printf("  state:  %s\n", playState(svc))
		return nil
	},
}

var playerCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "show currently playing track",
	Long:  `display information about the currently playing track.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		bus, err := player.SessionBus()
		if err != nil {
			return fmt.Errorf("failed to connect to session bus: %w", err)
		}
		defer bus.Close()

		svc, err := player.NewService(bus, player.ServiceName(cfg.MprisService), nil)
		if err != nil {
			return fmt.Errorf("failed to connect to player: %w", err)
		}
		if err := svc.Poll(); err != nil {
			return fmt.Errorf("player did not answer: %w", err)
		}

		state := svc.GetState()
		if !state.Track.IsValid() {
			fmt.Println("no track currently playing")
			return nil
		}

		t := state.Track
		fmt.Printf("title:    %s\n", t.Title)
		fmt.Printf("artist:   %s\n", t.Artist)
		if t.Album != "" {
			fmt.Printf("album:    %s\n", t.Album)
		}
		if t.DurationSecs > 0 {
			fmt.Printf("duration: %s\n", colors.FormatTime(t.DurationSecs))
		}
		if t.ArtworkURL != "" {
			fmt.Printf("artwork:  %s\n", t.ArtworkURL)
		}
		if path := t.LocalPath(); path != "" {
			fmt.Printf("file:     %s\n", path)
		}
		fmt.Printf("state:    %s\n", playState(svc))
		if state.Position > 0 {
			fmt.Printf("position: %s\n", colors.FormatTime(state.Position))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(playerCmd)

	playerCmd.AddCommand(playerListCmd)
	playerCmd.AddCommand(playerTestCmd)
	playerCmd.AddCommand(playerCurrentCmd)

	playerTestCmd.Flags().StringVar(&testService, "service", "", "mpris service to test")
}

func playerIdentity(bus player.Bus, service string) string {
	variant, err := bus.GetProperty(service, mprisRoot, "org.mpris.MediaPlayer2.Identity")
	if err != nil {
		return ""
	}
	identity, _ := variant.Value().(string)
	return identity
}

// playState asks the player directly, the service only learns it from signals.
func playState(svc *player.Service) string {
	playing, err := svc.GetPlaying()
	switch {
	case err != nil:
		return "unknown"
	case playing:
		return "playing"
	default:
		return "paused"
	}
}
