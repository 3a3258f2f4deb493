package main

import (
	"fmt"
	"io"

	"github.com/Jayden1717/fitness-companion/internal/strava"
	qrcode "github.com/skip2/go-qrcode"
)

// runLink prints the Strava consent URL for a user and writes it as a QR
// code PNG, so the account can be linked from a phone where the rider is
// already signed in to Strava.
func runLink(stdout io.Writer, configPath, userID string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Strava.ClientID == "" {
		return fmt.Errorf("strava.client_id is not configured")
	}

	// No credential store needed to build the consent URL.
	client := strava.NewClient(cfg.Strava.ClientID, cfg.Strava.ClientSecret, cfg.Strava.RedirectURL, nil, nil)
	u := client.AuthorizeURL(userID)

	pngPath := fmt.Sprintf("strava-link-%s.png", userID)
	if err := qrcode.WriteFile(u, qrcode.Medium, 256, pngPath); err != nil {
		return fmt.Errorf("write QR code: %w", err)
	}

	fmt.Fprintf(stdout, "Visit this URL to link Strava for %s:\n\n  %s\n\nQR code written to %s\n", userID, u, pngPath)
	return nil
}
