// Package browser hands topic media links to the system's default handler.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// Launcher starts a command; tests replace it.
type Launcher func(name string, args ...string) error

func startCommand(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

var launch Launcher = startCommand

// Check reports whether rawURL may be opened: only absolute http(s) links
// with a host are allowed.
func Check(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open URL with scheme %q (only http/https allowed)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("refusing to open URL without a host")
	}
	return nil
}

// Open launches the platform opener for rawURL, such as a video embed or an
// uploaded image.
func Open(rawURL string) error {
	if err := Check(rawURL); err != nil {
		return err
	}
	name, args := opener(runtime.GOOS, rawURL)
	if err := launch(name, args...); err != nil {
		return fmt.Errorf("opening %s: %w", rawURL, err)
	}
	return nil
}

func opener(goos, rawURL string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{rawURL}
	case "windows":
		// rundll32 avoids cmd /c start shell interpretation.
		return "rundll32", []string{"url.dll,FileProtocolHandler", rawURL}
	default:
		return "xdg-open", []string{rawURL}
	}
}
