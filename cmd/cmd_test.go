package cmd

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/spf13/viper"

	"github.com/pders01/stackpack/internal/config"
	"github.com/pders01/stackpack/internal/testutil"
)

// resetConfig gives each test the built-in defaults, since initConfig only
// runs through cobra
func resetConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	config.SetDefaults()
	logLevel = "error"
	t.Cleanup(viper.Reset)
}

// captureStdout returns everything fn prints to stdout
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}

	old := os.Stdout
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		done <- buf.String()
	}()

	runErr := fn()

	w.Close()
	os.Stdout = old
	return <-done, runErr
}

// sampleProject is a small web project with files each rule should drop
func sampleProject(t *testing.T) *testutil.TempProject {
	p := testutil.NewTempProject(t, "myapp")
	p.CreateFile("index.html", "<h1>hi</h1>")
	p.CreateFile("src/main.js", "console.log('a < b && c > d')")
	p.CreateFile("src/styles.css", "body{}")
	p.CreateFile("README.md", "# myapp")
	p.CreateFile("node_modules/lib/index.js", "module.exports = 1")
	p.CreateFile("package-lock.json", "{}")
	p.CreateFile("logo.png", "not really a png")
	return p
}
