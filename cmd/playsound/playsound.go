package playsound

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/handsoff-go/internal/audio"
	"github.com/tphakala/handsoff-go/internal/conf"
)

// finishGrace is added to the clip length before giving up on the finished event
const finishGrace = 2 * time.Second

// Command returns a cobra command that plays the alert sound once
func Command(settings *conf.Settings) *cobra.Command {
	var sound string

	cmd := &cobra.Command{
		Use:   "playsound",
		Short: "Play the alert sound once",
		Long:  "Play the configured alert sound, or the built-in tone, and wait until playback has finished.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sound == "" {
				sound = settings.Alert.Sound
			}

			clip, err := audio.LoadAlertClip(sound)
			if err != nil {
				return err
			}

			player, err := audio.NewPlayer(clip)
			if err != nil {
				return err
			}
			defer func() { _ = player.Close() }()

			finished := make(chan struct{})
			if err := player.Play(func() { close(finished) }); err != nil {
				return err
			}

			select {
			case <-finished:
				fmt.Fprintf(cmd.OutOrStdout(), "Played %s of audio\n", clip.Duration().Round(time.Millisecond))
				return nil
			case <-time.After(clip.Duration() + finishGrace):
				return fmt.Errorf("playback did not finish within %s", clip.Duration()+finishGrace)
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}
		},
	}

	cmd.Flags().StringVar(&sound, "sound", "", "WAV file to play (default: alert.sound or the built-in tone)")

	return cmd
}
