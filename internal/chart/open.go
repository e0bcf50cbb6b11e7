package chart

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Open shows an image file in the desktop's default viewer
func Open(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting image viewer: %w", err)
	}
	// The viewer outlives us; reap it in the background
	go cmd.Wait()
	return nil
}
