// Package browser opens help pages in the user's default browser.
package browser

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

// Open launches the default browser for url. The command is started and not
// waited on; callers treat failures as non-fatal.
func Open(url string) error {
	if url == "" {
		return errors.New("browser.Open: empty url")
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("browser.Open: unsupported OS %s", runtime.GOOS)
	}
	return cmd.Start()
}
